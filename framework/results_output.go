package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// PrintResults writes a summary of the test run, followed by the errors for each failed test.
func PrintResults(out io.Writer, results Results) {
	passed, failed, skipped := results.Counts()
	summary := fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped)
	if results.OK() {
		fmt.Fprintln(out, color.GreenString("All tests passed (%s)", summary))
		return
	}
	fmt.Fprintln(out, color.RedString("FAILED TESTS (%s):", summary))
	for _, f := range results.Failures {
		fmt.Fprintf(out, "  * %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(reformatError(err).Error(), "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
		}
	}
}

// reformatError strips the leading blank line and tab indentation that testify puts in front
// of its assertion messages, so they read cleanly in a console that is already indented.
func reformatError(err error) error {
	s := strings.TrimPrefix(err.Error(), "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "\t")
	}
	return stringError(strings.Join(lines, "\n"))
}

type stringError string

func (s stringError) Error() string { return string(s) }
