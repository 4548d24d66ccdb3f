package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/metalagman/contentgen/internal/completion"
	"github.com/metalagman/contentgen/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	prompts []string
	result  content.Result
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (content.Result, error) {
	g.prompts = append(g.prompts, prompt)
	return g.result, g.err
}

// collect runs cmd and flattens batches, returning every resulting message.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func submit(t *testing.T, m Model, prompt string) (Model, []tea.Msg) {
	t.Helper()
	m.input.SetValue(prompt)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, collect(cmd)
}

func findResult(t *testing.T, msgs []tea.Msg) resultMsg {
	t.Helper()
	for _, msg := range msgs {
		if res, ok := msg.(resultMsg); ok {
			return res
		}
	}
	t.Fatal("no result message produced")
	return resultMsg{}
}

func TestModel_SubmitGeneratesAndRenders(t *testing.T) {
	gen := &fakeGenerator{result: content.Result{Content: "# Hi"}}
	render := func(md string, _ int) (string, error) { return "rendered:" + md, nil }
	m := New(context.Background(), gen, render)

	m, msgs := submit(t, m, "write a title")
	assert.Equal(t, stateGenerating, m.state)
	assert.Contains(t, m.View(), "generating")

	next, _ := m.Update(findResult(t, msgs))
	m = next.(Model)
	assert.Equal(t, stateDone, m.state)
	assert.Equal(t, []string{"write a title"}, gen.prompts)
	assert.Contains(t, m.View(), "rendered:# Hi")
}

func TestModel_ShowsErrorKindAndAllowsRetry(t *testing.T) {
	gen := &fakeGenerator{err: &completion.RemoteError{StatusCode: 401}}
	m := New(context.Background(), gen, nil)

	m, msgs := submit(t, m, "p")
	next, _ := m.Update(findResult(t, msgs))
	m = next.(Model)
	view := m.View()
	assert.True(t, strings.Contains(view, "remote"), view)

	gen.err = nil
	gen.result = content.Result{Content: "second"}
	m, msgs = submit(t, m, "p2")
	assert.NoError(t, m.err)
	next, _ = m.Update(findResult(t, msgs))
	m = next.(Model)
	assert.Contains(t, m.View(), "second")
}

func TestModel_IgnoresSubmitWhileGenerating(t *testing.T) {
	gen := &fakeGenerator{}
	m := New(context.Background(), gen, nil)
	m.state = stateGenerating

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Equal(t, stateGenerating, next.(Model).state)
	assert.Empty(t, gen.prompts)
}

func TestModel_Quit(t *testing.T) {
	m := New(context.Background(), &fakeGenerator{}, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderMarkdown_NoTTY(t *testing.T) {
	out, err := RenderMarkdown("# Heading\n\nbody text", "notty", 40)
	require.NoError(t, err)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "body text")
}
