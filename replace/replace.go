// Package replace applies an ordered list of find/replace rules to text.
//
// Rules are applied one after another to the running output, so a later rule
// sees the text produced by the earlier ones. Patterns use ECMAScript regular
// expression syntax and every occurrence is replaced.
package replace

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

var (
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrMatchTimeout   = errors.New("pattern match timed out")
)

// DefaultMatchTimeout bounds a single match or replace call.
const DefaultMatchTimeout = 2 * time.Second

// Rule is a single find/replace pair.
type Rule struct {
	Find    string `json:"find"`
	Replace string `json:"replace"`
}

// Result is the outcome of applying a rule list.
type Result struct {
	Output  string   `json:"output"`
	Matched []string `json:"matched"` // Find of each rule that matched when applied
}

// Engine applies rules with a per-call match timeout.
type Engine struct {
	MatchTimeout time.Duration
}

// NewEngine returns an Engine; a non-positive timeout selects DefaultMatchTimeout.
func NewEngine(timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	return &Engine{MatchTimeout: timeout}
}

// Apply runs rules against input using DefaultMatchTimeout.
func Apply(input string, rules []Rule) (Result, error) {
	return NewEngine(0).Apply(input, rules)
}

// Apply runs rules against input in order. On error the input is returned
// unchanged and Matched is empty.
func (e *Engine) Apply(input string, rules []Rule) (Result, error) {
	compiled, err := e.Compile(rules)
	if err != nil {
		return Result{Output: input, Matched: []string{}}, err
	}

	output := input
	matched := []string{}
	for i, re := range compiled {
		ok, err := re.MatchString(output)
		if err != nil {
			return Result{Output: input, Matched: []string{}}, matchErr(i, rules[i], err)
		}
		if !ok {
			continue
		}
		matched = append(matched, rules[i].Find)
		output, err = re.Replace(output, jsReplacement(rules[i].Replace), -1, -1)
		if err != nil {
			return Result{Output: input, Matched: []string{}}, matchErr(i, rules[i], err)
		}
	}
	return Result{Output: output, Matched: matched}, nil
}

// Compile validates every rule pattern.
func (e *Engine) Compile(rules []Rule) ([]*regexp2.Regexp, error) {
	out := make([]*regexp2.Regexp, len(rules))
	for i, r := range rules {
		re, err := regexp2.Compile(r.Find, regexp2.ECMAScript)
		if err != nil {
			return nil, fmt.Errorf("rule %d %q: %w: %v", i, r.Find, ErrInvalidPattern, err)
		}
		re.MatchTimeout = e.MatchTimeout
		out[i] = re
	}
	return out, nil
}

// Compile validates rules with the default timeout.
func Compile(rules []Rule) error {
	_, err := NewEngine(0).Compile(rules)
	return err
}

// Report renders the matched-pattern line shown next to the output.
func Report(matched []string) string {
	if len(matched) == 0 {
		return "Replacements made for: None"
	}
	return "Replacements made for: " + strings.Join(matched, ", ")
}

// jsReplacement rewrites an ECMAScript replacement string into the syntax
// regexp2 expands. $<name> becomes ${name}; $0, ${, $+ and $_ stay literal.
func jsReplacement(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '$' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 == len(s) {
			b.WriteString("$$")
			break
		}
		switch c := s[i+1]; {
		case c == '$' || c == '&' || c == '`' || c == '\'':
			b.WriteByte('$')
			b.WriteByte(c)
			i++
		case c == '0' && (i+2 == len(s) || s[i+2] < '0' || s[i+2] > '9'):
			b.WriteString("$$0")
			i++
		case c >= '0' && c <= '9':
			b.WriteByte('$')
		case c == '<':
			end := strings.IndexByte(s[i+2:], '>')
			if end <= 0 {
				b.WriteString("$$")
				continue
			}
			b.WriteString("${" + s[i+2:i+2+end] + "}")
			i += end + 2
		default:
			b.WriteString("$$")
		}
	}
	return b.String()
}

func matchErr(i int, r Rule, err error) error {
	if strings.Contains(err.Error(), "timeout") {
		return fmt.Errorf("rule %d %q: %w", i, r.Find, ErrMatchTimeout)
	}
	return fmt.Errorf("rule %d %q: %w", i, r.Find, err)
}
