package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tcnksm/go-input"
	"golang.org/x/term"
)

var (
	// ErrDeclined is returned when the user gives no usable answer.
	ErrDeclined = errors.New("no answer given")
	// ErrNotInteractive is returned when a masked prompt is needed but stdin is not a terminal.
	ErrNotInteractive = errors.New("stdin is not a terminal")
)

// Prompter asks the user for input.
//
// note: fault injection point
type Prompter interface {
	Ask(query string) (string, error)
	// Password reads a line without echoing it.
	Password(query string) (string, error)
	Confirm(query string) (bool, error)
	// Choose returns the index of the option the user picked.
	Choose(query string, options []string) (int, error)
}

// Terminal implements Prompter on top of go-input, passwords are read
// through x/term so they are never echoed.
type Terminal struct {
	ui    *input.UI
	out   io.Writer
	stdin *os.File
}

func NewTerminal() Terminal {
	return Terminal{
		ui:    input.DefaultUI(),
		out:   os.Stdout,
		stdin: os.Stdin,
	}
}

func (t Terminal) Ask(query string) (string, error) {
	answer, err := t.ui.Ask(query, &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDeclined, err)
	}
	return strings.TrimSpace(answer), nil
}

func (t Terminal) Password(query string) (string, error) {
	fd := int(t.stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotInteractive
	}
	fmt.Fprintf(t.out, "%s: ", query)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	if len(password) == 0 {
		return "", ErrDeclined
	}
	return string(password), nil
}

func (t Terminal) Confirm(query string) (bool, error) {
	answer, err := t.ui.Ask(fmt.Sprintf("%s [y/N]", query), &input.Options{
		HideOrder: true,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrDeclined, err)
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y"), nil
}

func (t Terminal) Choose(query string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("%w: nothing to choose from", ErrDeclined)
	}
	choice, err := t.ui.Select(query, options, &input.Options{
		Required: true,
		Loop:     false,
	})
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrDeclined, err)
	}
	for i, opt := range options {
		if opt == choice {
			return i, nil
		}
	}
	return -1, ErrDeclined
}
