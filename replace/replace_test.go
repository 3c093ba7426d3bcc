package replace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	t.Run("replaces every occurrence", func(t *testing.T) {
		res, err := Apply("foo foo baz", []Rule{{Find: "foo", Replace: "bar"}})
		require.NoError(t, err)
		assert.Equal(t, "bar bar baz", res.Output)
		assert.Equal(t, []string{"foo"}, res.Matched)
	})

	t.Run("empty rule list is the identity", func(t *testing.T) {
		for _, in := range []string{"", "abc", "foo\nbar"} {
			res, err := Apply(in, nil)
			require.NoError(t, err)
			assert.Equal(t, in, res.Output)
			assert.NotNil(t, res.Matched)
			assert.Empty(t, res.Matched)
		}
	})

	t.Run("later rules see earlier output", func(t *testing.T) {
		res, err := Apply("a", []Rule{{Find: "a", Replace: "b"}, {Find: "b", Replace: "c"}})
		require.NoError(t, err)
		assert.Equal(t, "c", res.Output)
		assert.Equal(t, []string{"a", "b"}, res.Matched)
	})

	t.Run("unmatched rules are not reported", func(t *testing.T) {
		res, err := Apply("hello", []Rule{{Find: "xyz", Replace: "q"}, {Find: "l+", Replace: "L"}})
		require.NoError(t, err)
		assert.Equal(t, "heLo", res.Output)
		assert.Equal(t, []string{"l+"}, res.Matched)
	})

	t.Run("rule that stops matching after an earlier rule", func(t *testing.T) {
		res, err := Apply("cat", []Rule{{Find: "cat", Replace: "dog"}, {Find: "cat", Replace: "cow"}})
		require.NoError(t, err)
		assert.Equal(t, "dog", res.Output)
		assert.Equal(t, []string{"cat"}, res.Matched)
	})

	t.Run("group substitution", func(t *testing.T) {
		res, err := Apply("John Smith", []Rule{{Find: `(\w+)\s(\w+)`, Replace: "$2, $1"}})
		require.NoError(t, err)
		assert.Equal(t, "Smith, John", res.Output)
	})

	t.Run("named group substitution", func(t *testing.T) {
		res, err := Apply("John Smith", []Rule{{Find: `(?<first>\w+)\s(?<last>\w+)`, Replace: "$<last>, $<first>"}})
		require.NoError(t, err)
		assert.Equal(t, "Smith, John", res.Output)
	})

	t.Run("replacement tokens", func(t *testing.T) {
		cases := []struct {
			replace string
			want    string
		}{
			{"$$$&", "price $5"},
			{"[$0]", "price [$0]"},
			{"${x}", "price ${x}"},
			{"$+$_", "price $+$_"},
			{"<$&>", "price <5>"},
			{"$<", "price $<"},
		}
		for _, tc := range cases {
			res, err := Apply("price 5", []Rule{{Find: `\d`, Replace: tc.replace}})
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Output, "replacement %q", tc.replace)
		}
	})

	t.Run("unicode text", func(t *testing.T) {
		res, err := Apply("ကို ကို", []Rule{{Find: "ကို", Replace: "ko"}})
		require.NoError(t, err)
		assert.Equal(t, "ko ko", res.Output)
	})
}

func TestApplyDeterministic(t *testing.T) {
	rules := []Rule{{Find: `\d+`, Replace: "#"}, {Find: "#-#", Replace: "range"}, {Find: "x", Replace: "y"}}
	first, err := Apply("1-2 and 30-40 x", rules)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Apply("1-2 and 30-40 x", rules)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "range and range y", first.Output)
}

func TestApplyInvalidPattern(t *testing.T) {
	res, err := Apply("keep me", []Rule{{Find: "me", Replace: "you"}, {Find: "(unclosed", Replace: ""}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPattern))
	assert.Equal(t, "keep me", res.Output)
	assert.Empty(t, res.Matched)
}

func TestCompile(t *testing.T) {
	assert.NoError(t, Compile([]Rule{{Find: "a|b"}, {Find: `^\s+`}}))
	assert.ErrorIs(t, Compile([]Rule{{Find: "[z-a]"}}), ErrInvalidPattern)
}

func TestReport(t *testing.T) {
	assert.Equal(t, "Replacements made for: None", Report(nil))
	assert.Equal(t, "Replacements made for: foo, b+", Report([]string{"foo", "b+"}))
}
