// Package tui is an interactive terminal prompt for content generation.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metalagman/contentgen/internal/completion"
	"github.com/metalagman/contentgen/internal/content"
)

// Generator produces content for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (content.Result, error)
}

// Renderer turns generated Markdown into terminal output.
type Renderer func(markdown string, width int) (string, error)

type state int

const (
	stateEditing state = iota
	stateGenerating
	stateDone
)

type resultMsg struct {
	result content.Result
	err    error
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the bubbletea model of the prompt screen.
type Model struct {
	ctx     context.Context
	gen     Generator
	render  Renderer
	input   textarea.Model
	spinner spinner.Model
	state   state
	output  string
	err     error
	width   int
}

// New creates the prompt screen.
func New(ctx context.Context, gen Generator, render Renderer) Model {
	input := textarea.New()
	input.Placeholder = "Describe the content to generate..."
	input.SetWidth(DefaultWrap)
	input.SetHeight(6)
	input.Focus()

	return Model{
		ctx:     ctx,
		gen:     gen,
		render:  render,
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:   DefaultWrap,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+s":
			if m.state == stateGenerating {
				return m, nil
			}
			m.state = stateGenerating
			m.err = nil
			m.output = ""
			return m, tea.Batch(m.spinner.Tick, m.generate(m.input.Value()))
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(max(msg.Width-2, 20))
		return m, nil
	case resultMsg:
		m.state = stateDone
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.output = msg.result.Content
		if m.render != nil {
			if rendered, err := m.render(msg.result.Content, m.width); err == nil {
				m.output = rendered
			}
		}
		return m, nil
	case spinner.TickMsg:
		if m.state != stateGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.state == stateGenerating {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) generate(prompt string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.gen.Generate(m.ctx, prompt)
		return resultMsg{result: res, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Content generator"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.state == stateGenerating:
		b.WriteString(m.spinner.View() + " generating...\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(completion.Kind(m.err)+": "+m.err.Error()) + "\n")
	case m.state == stateDone:
		b.WriteString(m.output)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("ctrl+s generate • esc quit"))
	b.WriteString("\n")
	return b.String()
}

// Run starts the prompt screen and blocks until the user quits.
func Run(ctx context.Context, gen Generator, render Renderer) error {
	_, err := tea.NewProgram(New(ctx, gen, render), tea.WithContext(ctx)).Run()
	return err
}
