// Package console talks to the operator: status lines and confirmation prompts.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when a confirmation is needed but nobody can answer it.
var ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal (use --yes)")

// Prompter asks the operator yes/no questions.
type Prompter interface {
	Confirm(question string, defaultYes bool) (bool, error)
}

// UI prints status lines and asks for confirmation.
type UI struct {
	out         io.Writer
	errOut      io.Writer
	in          *bufio.Reader
	interactive bool
	success     *color.Color
	warn        *color.Color
}

// New creates a UI over the given streams.
func New(out, errOut io.Writer, in io.Reader, interactive bool) *UI {
	return &UI{
		out:         out,
		errOut:      errOut,
		in:          bufio.NewReader(in),
		interactive: interactive,
		success:     color.New(color.FgGreen),
		warn:        color.New(color.FgYellow),
	}
}

// NewStd creates a UI over the process's standard streams.
func NewStd() *UI {
	return New(os.Stdout, os.Stderr, os.Stdin, term.IsTerminal(int(os.Stdin.Fd())))
}

// Out is where command output is streamed.
func (u *UI) Out() io.Writer {
	return u.out
}

// ErrOut is where command diagnostics are streamed.
func (u *UI) ErrOut() io.Writer {
	return u.errOut
}

// Info prints a plain status line.
func (u *UI) Info(format string, args ...any) {
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Success prints a status line in green.
func (u *UI) Success(format string, args ...any) {
	u.success.Fprintf(u.out, format+"\n", args...)
}

// Warn prints a status line in yellow.
func (u *UI) Warn(format string, args ...any) {
	u.warn.Fprintf(u.out, format+"\n", args...)
}

// Confirm asks a yes/no question until it gets a valid answer.
// An empty answer selects the default.
func (u *UI) Confirm(question string, defaultYes bool) (bool, error) {
	if !u.interactive {
		return false, ErrNotInteractive
	}
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(u.out, "%s %s ", question, hint)
		line, err := u.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if err != nil && (err != io.EOF || answer == "") {
			if err == io.EOF {
				return false, fmt.Errorf("no answer to %q: %w", question, err)
			}
			return false, err
		}
		switch answer {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err == io.EOF {
			return false, fmt.Errorf("invalid answer %q to %q", answer, question)
		}
	}
}
