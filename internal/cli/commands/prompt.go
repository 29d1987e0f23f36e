package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when input is needed but stdin is not a terminal
var ErrNotInteractive = errors.New("input required in non-interactive mode")

// Prompter asks the user for input
type Prompter interface {
	Text(label, def string) (string, error)
	Password(label string) (string, error)
	Confirm(label string) (bool, error)
}

// TerminalPrompter prompts on the controlling terminal
type TerminalPrompter struct{}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Text implements Prompter
func (TerminalPrompter) Text(label, def string) (string, error) {
	if !stdinIsTerminal() {
		return "", fmt.Errorf("%w: %s", ErrNotInteractive, strings.ToLower(label))
	}

	p := promptui.Prompt{
		Label:   label,
		Default: def,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("value is required")
			}
			return nil
		},
	}
	v, err := p.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// Password implements Prompter
func (TerminalPrompter) Password(label string) (string, error) {
	if !stdinIsTerminal() {
		return "", fmt.Errorf("%w: %s", ErrNotInteractive, strings.ToLower(label))
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// Confirm implements Prompter
func (TerminalPrompter) Confirm(label string) (bool, error) {
	if !stdinIsTerminal() {
		return false, fmt.Errorf("%w: confirm with --yes", ErrNotInteractive)
	}

	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
