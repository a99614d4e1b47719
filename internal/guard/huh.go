package guard

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/conn-castle/scaffold/internal/messages"
	"github.com/conn-castle/scaffold/internal/terminal"
)

var runFormFunc = func(ctx context.Context, form *huh.Form) error { return form.RunWithContext(ctx) }

// FormPrompter asks with a charmbracelet/huh confirm form on stderr.
type FormPrompter struct {
	isTerminal func() bool
}

// NewFormPrompter returns a FormPrompter using terminal.IsInteractive.
func NewFormPrompter() FormPrompter {
	return FormPrompter{isTerminal: terminal.IsInteractive}
}

// Confirm renders the form. Esc and Ctrl+C answer no.
func (p FormPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	checker := p.isTerminal
	if checker == nil {
		checker = terminal.IsInteractive
	}
	if !checker() {
		return false, errors.New(messages.GuardFormRequiresTerminal)
	}

	value := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(messages.PromptFormTitle).
				Description(messages.PromptFormDesc).
				Affirmative(messages.PromptFormConfirm).
				Negative(messages.PromptFormDecline).
				Value(&value),
		),
	)
	form.WithKeyMap(confirmKeyMap())
	form.WithProgramOptions(tea.WithOutput(os.Stderr))

	err := runFormFunc(ctx, form)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value, nil
}

// confirmKeyMap makes Esc cancel the form in addition to Ctrl+C.
func confirmKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "cancel"))
	return km
}
