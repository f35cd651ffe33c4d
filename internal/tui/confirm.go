// Package tui provides the interactive yes/no prompt that gates large batches.
package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Confirmer asks a yes/no question. On a terminal it renders a huh form;
// otherwise it reads a line-based answer from Input.
type Confirmer struct {
	// Accessible selects the line-based prompt.
	Accessible bool
	Input      io.Reader
	Output     io.Writer
}

// NewConfirmer returns a Confirmer on the process terminal. The line-based
// prompt is used when stdin is not a terminal or ACCESSIBLE is set, so
// piped answers ("yes | image-mixer") still work.
func NewConfirmer() *Confirmer {
	return &Confirmer{
		Accessible: !term.IsTerminal(int(os.Stdin.Fd())) || os.Getenv("ACCESSIBLE") != "",
		Input:      os.Stdin,
		Output:     os.Stderr,
	}
}

// Confirm blocks until the user answers. Aborting the prompt (ctrl+c, esc,
// end of input) counts as a refusal rather than an error.
func (c *Confirmer) Confirm(ctx context.Context, title, description string) (bool, error) {
	if c.Accessible {
		return c.confirmLine(title, description)
	}

	var confirmed bool

	field := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(field)).WithShowHelp(false)
	if c.Input != nil {
		form = form.WithInput(c.Input)
	}
	if c.Output != nil {
		form = form.WithOutput(c.Output)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}

	return confirmed, nil
}

// confirmLine asks on Output and reads answers from Input until one parses.
// Anything but y/yes is a refusal once the input ends.
func (c *Confirmer) confirmLine(title, description string) (bool, error) {
	out := c.Output
	if out == nil {
		out = io.Discard
	}
	in := c.Input
	if in == nil {
		in = strings.NewReader("")
	}

	fmt.Fprintln(out, title)
	if description != "" {
		fmt.Fprintln(out, description)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Continue? [y/N]: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return false, scanner.Err()
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer y or n.")
		}
	}
}

// Assume answers every prompt with a fixed value, for --yes and tests.
type Assume bool

// Confirm returns the assumed answer.
func (a Assume) Confirm(context.Context, string, string) (bool, error) {
	return bool(a), nil
}
