// Package tui is a terminal front end for the diagram session: it generates
// a diagram for a query, lists its nodes and edge labels for selection and
// asks follow-up questions about the selected element.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/deepdive"
	"github.com/ziadkadry99/diagramdive/internal/lifecycle"
	"github.com/ziadkadry99/diagramdive/internal/render"
	"github.com/ziadkadry99/diagramdive/internal/selection"
	"github.com/ziadkadry99/diagramdive/internal/session"
)

// Options configures New.
type Options struct {
	Service api.Service
	Engines *render.Loader
	Logger  *zap.Logger
	// Query is generated as soon as the program starts when non-empty.
	Query string
	// Timeout bounds each service call. Zero means no limit.
	Timeout time.Duration
	// Style names a glamour style for answers. Empty picks one from the
	// terminal background.
	Style string
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type focus int

const (
	focusQuery focus = iota
	focusQuestion
)

// doneMsg reports the end of a controller call run as a command.
type doneMsg struct {
	op  string
	err error
}

// app holds the controllers shared by every copy of the model.
type app struct {
	ctx     context.Context
	ev      *events
	sel     *selection.Controller
	gen     *lifecycle.Generator
	dd      *deepdive.Controller
	log     *zap.Logger
	timeout time.Duration
}

// Model is the bubbletea model.
type Model struct {
	app     *app
	initial string

	query    textinput.Model
	question textinput.Model
	spin     spinner.Model
	answers  viewport.Model
	md       *glamour.TermRenderer
	focus    focus

	seq      uint64
	state    lifecycle.State
	prompt   string
	errText  string
	targets  []target
	cursor   int
	selected int
	selText  string
	pending  bool
	answer   string
	ansErr   string
	quitting bool
}

// New wires a fresh session to opts.Service and returns the model.
func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ev := newEvents()
	v := &view{ev: ev}
	sess := session.New()
	sel := selection.New(sess, v, log)
	a := &app{
		ctx:     context.Background(),
		ev:      ev,
		sel:     sel,
		gen:     lifecycle.New(sess, opts.Service, opts.Engines, sel, v, log),
		dd:      deepdive.New(sess, opts.Service, v, log),
		log:     log,
		timeout: opts.Timeout,
	}

	q := textinput.New()
	q.Placeholder = "Describe what to diagram, e.g. the OAuth login flow"
	q.Prompt = "Query> "
	q.CharLimit = 500
	q.Width = 72
	q.SetValue(opts.Query)
	q.Focus()

	qn := textinput.New()
	qn.Placeholder = "Ask about the selected element"
	qn.Prompt = "Ask> "
	qn.CharLimit = 500
	qn.Width = 72

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = stateStyle

	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}
	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(78))
	if err != nil {
		log.Warn("markdown renderer unavailable, answers are shown raw", zap.Error(err))
		md = nil
	}

	return Model{
		app:      a,
		initial:  strings.TrimSpace(opts.Query),
		query:    q,
		question: qn,
		spin:     s,
		answers:  viewport.New(80, 12),
		md:       md,
	}
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)
	m.app.ctx = ctx
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spin.Tick, m.app.ev.next()}
	if m.initial != "" {
		cmds = append(cmds, m.generate(m.initial))
	}
	return tea.Batch(cmds...)
}

// call runs fn in a command with the configured timeout.
func (m Model) call(op string, fn func(ctx context.Context) error) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx := a.ctx
		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}
		return doneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) generate(query string) tea.Cmd {
	return m.call("generate", func(ctx context.Context) error {
		return m.app.gen.GenerateDiagram(ctx, query)
	})
}

func (m Model) ask(question string) tea.Cmd {
	return m.call("ask", func(ctx context.Context) error {
		_, err := m.app.dd.AskAboutSelection(ctx, question)
		return err
	})
}

func (m Model) selectTarget(t target) tea.Cmd {
	sel := m.app.sel
	return m.call("select", func(context.Context) error {
		el := sel.Bound().ElementByID(t.id)
		if el == nil {
			return selection.ErrStaleElement
		}
		return sel.OnElementClicked(el, t.kind)
	})
}

func (m Model) clearSelection() tea.Cmd {
	sel := m.app.sel
	return m.call("clear", func(context.Context) error {
		sel.ClearSelection()
		return nil
	})
}

func (m Model) busy() bool {
	switch m.state {
	case lifecycle.Requesting, lifecycle.Rendering, lifecycle.Validating:
		return true
	}
	return false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := max(msg.Width-4, 20)
		m.query.Width = w - len(m.query.Prompt)
		m.question.Width = w - len(m.question.Prompt)
		m.answers.Width = w
		m.answers.Height = max(msg.Height/3, 5)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m = m.apply(msg.msg)
		return m, m.app.ev.next()

	case doneMsg:
		m.onDone(msg)
		return m, nil
	}

	var spinCmd, inputCmd tea.Cmd
	m.spin, spinCmd = m.spin.Update(msg)
	if m.focus == focusQuestion {
		m.question, inputCmd = m.question.Update(msg)
	} else {
		m.query, inputCmd = m.query.Update(msg)
	}
	return m, tea.Batch(spinCmd, inputCmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		if m.focus == focusQuestion {
			return m, m.ask(m.question.Value())
		}
		m.prompt = ""
		return m, m.generate(m.query.Value())

	case "ctrl+r":
		if m.state == lifecycle.Failed {
			return m, m.generate(m.query.Value())
		}
		return m, nil

	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down":
		if m.cursor < len(m.targets)-1 {
			m.cursor++
		}
		return m, nil

	case "ctrl+s":
		if m.cursor < len(m.targets) {
			return m, m.selectTarget(m.targets[m.cursor])
		}
		return m, nil

	case "esc":
		if m.selText != "" {
			return m, m.clearSelection()
		}
		return m, nil

	case "tab":
		if m.focus == focusQuery && m.selText != "" {
			m.setFocus(focusQuestion)
		} else {
			m.setFocus(focusQuery)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusQuestion {
		m.question, cmd = m.question.Update(msg)
	} else {
		m.query, cmd = m.query.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusQuestion {
		m.query.Blur()
		m.question.Focus()
		return
	}
	m.question.Blur()
	m.query.Focus()
}

func (m *Model) onDone(msg doneMsg) {
	switch {
	case msg.err == nil:
	case errors.Is(msg.err, selection.ErrStaleElement):
		m.prompt = "That element is no longer part of the diagram."
	case errors.Is(msg.err, deepdive.ErrNothingToAsk):
		m.prompt = "Select an element and type a question first."
	default:
		// Everything else has already been reported through the view.
		m.app.log.Debug("command finished", zap.String("op", msg.op), zap.Error(msg.err))
	}
}

// apply folds one view update into the model.
func (m Model) apply(msg any) Model {
	switch msg := msg.(type) {
	case promptMsg:
		m.prompt = msg.text
	case stateMsg:
		m.seq, m.state = msg.seq, msg.state
		if msg.state == lifecycle.Requesting {
			m.prompt, m.errText = "", ""
			m.targets, m.cursor, m.selected = nil, 0, 0
		}
	case diagramMsg:
		m.targets, m.cursor = msg.targets, 0
	case errorMsg:
		m.errText = msg.text
	case markMsg:
		m.selected = msg.id
	case unmarkMsg:
		if m.selected == msg.id {
			m.selected = 0
		}
	case selectionMsg:
		m.selText = msg.text
		m.prompt = ""
	case hideSelectionMsg:
		m.selText = ""
		if m.focus == focusQuestion {
			m.setFocus(focusQuery)
		}
	case focusQuestionMsg:
		m.setFocus(focusQuestion)
	case clearQuestionMsg:
		m.question.SetValue("")
	case hideAnswerMsg:
		m.answer, m.ansErr, m.pending = "", "", false
		m.answers.SetContent("")
	case pendingMsg:
		m.pending, m.ansErr = true, ""
	case answerMsg:
		m.pending, m.ansErr = false, ""
		m.answer = m.renderAnswer(msg.ex)
		m.answers.SetContent(m.answer)
		m.answers.GotoTop()
	case answerErrorMsg:
		m.pending = false
		m.ansErr = msg.text
	}
	return m
}

// renderAnswer restates the selection and the question above the answer.
func (m Model) renderAnswer(ex deepdive.Exchange) string {
	src := fmt.Sprintf("### Deep Dive: %s\n\n*Q: %s*\n\n%s", ex.ContextText, ex.Question, ex.Answer)
	if m.md == nil {
		return src
	}
	out, err := m.md.Render(src)
	if err != nil {
		m.app.log.Warn("rendering answer", zap.Error(err))
		return src
	}
	return strings.TrimSpace(out)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("diagramdive") + "\n\n")
	b.WriteString(m.query.View() + "\n")

	switch {
	case m.busy():
		b.WriteString(m.spin.View() + stateStyle.Render(stateLabel(m.state)) + "\n")
	case m.errText != "":
		b.WriteString(errorStyle.Render(m.errText) + faintStyle.Render("  ctrl+r to retry") + "\n")
	}
	if m.prompt != "" {
		b.WriteString(promptStyle.Render(m.prompt) + "\n")
	}

	if len(m.targets) > 0 {
		var list strings.Builder
		for i, t := range m.targets {
			cursor := "  "
			if i == m.cursor {
				cursor = "> "
			}
			label := t.label
			if t.kind == session.KindEdgeLabel {
				label = "[edge] " + label
			}
			if t.id == m.selected {
				label = selectedStyle.Render(label)
			}
			list.WriteString(cursor + label)
			if i < len(m.targets)-1 {
				list.WriteString("\n")
			}
		}
		b.WriteString("\n" + panelStyle.Render(list.String()) + "\n")
	}

	if m.selText != "" {
		b.WriteString("\n" + selectedStyle.Render("Selected: ") + m.selText + "\n")
		b.WriteString(m.question.View() + "\n")
	}

	switch {
	case m.pending:
		b.WriteString(m.spin.View() + "Thinking...\n")
	case m.ansErr != "":
		b.WriteString(errorStyle.Render(m.ansErr) + "\n")
	case m.answer != "":
		b.WriteString("\n" + m.answers.View() + "\n")
	}

	b.WriteString("\n" + faintStyle.Render(helpLine(m)))
	return b.String()
}

func stateLabel(st lifecycle.State) string {
	switch st {
	case lifecycle.Requesting:
		return "Asking the diagram service..."
	case lifecycle.Rendering:
		return "Rendering diagram..."
	case lifecycle.Validating:
		return "Checking the rendered diagram..."
	default:
		return st.String()
	}
}

func helpLine(m Model) string {
	keys := []string{"enter generate"}
	if m.focus == focusQuestion {
		keys[0] = "enter ask"
	}
	if len(m.targets) > 0 {
		keys = append(keys, "up/down move", "ctrl+s select")
	}
	if m.selText != "" {
		keys = append(keys, "tab switch input", "esc clear selection")
	}
	keys = append(keys, "ctrl+c quit")
	return strings.Join(keys, " | ")
}
