// The interactive shell is a bubbletea program: asynchronous
// evaluation via tea.Cmd/tea.Msg, a styled history of input/output
// pairs, and a spinner while a form is running — the same shape as
// the teacher's Monkey REPL, retargeted from parsing+evaluating
// Monkey statements to reading+compiling+running Scheme forms through
// a *skime.Interpreter.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dr8co/skime"
)

const (
	prompt     = "λ> "
	contPrompt = "..  "
)

// ReplOptions configures the interactive shell's presentation.
type ReplOptions struct {
	NoColor      bool
	TraceOnError bool
	MaxCallDepth int
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	resultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	historyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
)

type evalResultMsg struct {
	output  string
	isError bool
	elapsed time.Duration
}

type historyEntry struct {
	input   string
	output  string
	isError bool
}

type replModel struct {
	textInput   textinput.Model
	spinner     spinner.Model
	interp      *skime.Interpreter
	history     []historyEntry
	evaluating  bool
	buffer      string
	multiline   bool
	currentLine string
	opts        ReplOptions
}

// StartREPL launches the interactive shell for username with opts.
func StartREPL(username string, opts ReplOptions) {
	fmt.Printf("Welcome, %s. Type Scheme forms; Ctrl+D/Ctrl+C to exit.\n", username)
	p := tea.NewProgram(initialReplModel(opts))
	if _, err := p.Run(); err != nil {
		fmt.Println("error running REPL:", err)
	}
}

func initialReplModel(opts ReplOptions) replModel {
	ti := textinput.New()
	ti.Placeholder = "(+ 1 2)"
	ti.Focus()
	ti.Width = 80
	ti.Prompt = promptStyle.Render(prompt)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	interp := skime.New()
	interp.VM.MaxCallDepth = opts.MaxCallDepth
	return replModel{
		textInput: ti,
		spinner:   s,
		interp:    interp,
		opts:      opts,
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// balanced reports whether parens in s are balanced, used to decide
// whether Enter should submit the buffer or start a continuation line
// — a Scheme form with open parens is not yet complete.
func balanced(s string) bool {
	depth := 0
	for _, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return true // unbalanced the other way; let the reader report it
			}
		}
	}
	return depth == 0
}

func evalCmd(interp *skime.Interpreter, src string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		v, err := interp.Eval(src)
		elapsed := time.Since(start)
		if err != nil {
			return evalResultMsg{output: err.Error(), isError: true, elapsed: elapsed}
		}
		return evalResultMsg{output: v.Inspect(), isError: false, elapsed: elapsed}
	}
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.evaluating {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case evalResultMsg:
		m.evaluating = false
		m.history = append(m.history, historyEntry{input: m.currentLine, output: msg.output, isError: msg.isError})
		m.currentLine = ""
		return m, nil

	case tea.KeyMsg:
		if m.evaluating && msg.Type != tea.KeyCtrlC {
			return m, m.spinner.Tick
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.textInput.Value()
			if m.multiline {
				m.buffer += "\n" + line
			} else {
				m.buffer = line
			}
			m.textInput.SetValue("")

			if !balanced(m.buffer) {
				m.multiline = true
				m.textInput.Prompt = promptStyle.Render(contPrompt)
				return m, nil
			}

			m.multiline = false
			m.textInput.Prompt = promptStyle.Render(prompt)
			src := m.buffer
			m.buffer = ""
			if strings.TrimSpace(src) == "" {
				return m, nil
			}
			m.currentLine = src
			m.evaluating = true
			return m, tea.Batch(evalCmd(m.interp, src), m.spinner.Tick)
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) View() string {
	var b strings.Builder
	b.WriteString(m.applyStyle(titleStyle, " skime "))
	b.WriteString("\n\n")

	for _, entry := range m.history {
		b.WriteString(m.applyStyle(historyStyle, prompt+entry.input))
		b.WriteString("\n")
		if entry.isError {
			b.WriteString(m.applyStyle(errorStyle, entry.output))
		} else {
			b.WriteString(m.applyStyle(resultStyle, entry.output))
		}
		b.WriteString("\n\n")
	}

	if m.evaluating {
		b.WriteString(m.spinner.View())
		b.WriteString(" evaluating...\n")
	} else {
		b.WriteString(m.textInput.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (m replModel) applyStyle(style lipgloss.Style, text string) string {
	if m.opts.NoColor {
		return text
	}
	return style.Render(text)
}
