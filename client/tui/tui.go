// Package tui holds the login prompt shown before the editor starts.
package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when the user quits the prompt without logging in.
var ErrCanceled = errors.New("login canceled")

// Prompt asks for a username and returns it once the user presses Enter.
func Prompt() (string, error) {
	m, err := tea.NewProgram(initialModel()).StartReturningModel()
	if err != nil {
		return "", err
	}

	final, ok := m.(model)
	if !ok || !final.loggedIn {
		return "", ErrCanceled
	}

	return final.textInput.Value(), nil
}

type model struct {
	textInput textinput.Model
	quitting  bool
	loggedIn  bool
}

func initialModel() model {
	ti := textinput.New()
	ti.Placeholder = "Username"
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 20

	return model{
		textInput: ti,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.textInput.Value() != "" {
				m.loggedIn = true
				return m, tea.Quit
			}
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.quitting || m.loggedIn {
		return ""
	}
	return fmt.Sprintf(
		"Enter username:\n\n%s\n\n%s",
		m.textInput.View(),
		"(esc to quit)",
	) + "\n"
}
