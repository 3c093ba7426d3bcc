package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

func newReplaceCmd(stdin io.Reader, stdout, stderr io.Writer, staticFS fs.FS) *cobra.Command {
	var inPath, outPath string
	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Apply the dictionary to text from a file or stdin",
		Long: `Apply every dictionary rule, in order, to the input text.

Input is read from --in (or stdin) and the output written to --out (or
stdout). The list of patterns that matched is printed to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, staticFS)
			if err != nil {
				return err
			}
			defer rt.close()
			loadRules(cmd, rt)

			input, err := readInput(stdin, inPath)
			if err != nil {
				return err
			}
			res, err := rt.app.Replace(input)
			if err != nil {
				return err
			}
			if err := writeOutput(stdout, outPath, res.Output); err != nil {
				return err
			}
			fmt.Fprintln(stderr, res.Report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "Input text file (default stdin)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file, e.g. output.txt (default stdout)")
	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func writeOutput(stdout io.Writer, path, output string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, output)
		return err
	}
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
