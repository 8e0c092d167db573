package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/balkashynov/ems/internal/views"
)

// lineReader asks for missing values on the command's stdin
type lineReader struct {
	in   *bufio.Reader
	out  io.Writer
	file *os.File // set when stdin is a terminal
}

func newLineReader(cmd *cobra.Command) *lineReader {
	r := &lineReader{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(f.Fd()) {
		r.file = f
	}
	return r
}

func (r *lineReader) ask(label string) (string, error) {
	fmt.Fprintf(r.out, "%s: ", label)
	line, err := r.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// secret reads without echo on a terminal, as a plain line otherwise
func (r *lineReader) secret(label string) (string, error) {
	if r.file == nil {
		return r.ask(label)
	}
	fmt.Fprintf(r.out, "%s: ", label)
	b, err := term.ReadPassword(r.file.Fd())
	fmt.Fprintln(r.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// Confirm asks a y/N question; anything but y or yes declines
func (r *lineReader) Confirm(ctx context.Context, prompt string) bool {
	if ctx.Err() != nil {
		return false
	}
	answer, err := r.ask(prompt + " [y/N]")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// confirmer honours a --yes flag, otherwise asks on stdin
func confirmer(cmd *cobra.Command, yes bool) views.Confirmer {
	if yes {
		return views.Confirmed
	}
	return newLineReader(cmd)
}

// orAsk returns value, or asks for it when empty
func orAsk(r *lineReader, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return r.ask(label)
}
