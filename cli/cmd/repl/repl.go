package repl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/dioscript/lang"
	"github.com/ardnew/dioscript/lang/stdlib"
	"github.com/ardnew/dioscript/log"
)

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

// Outputs are the encodings a result may be printed in.
var Outputs = []string{"native", "html", "json", "yaml"}

const helpMessage = `
: Commands (press Esc to toggle mode):

  help            Print this help
  vars            List session variables
  funcs [module]  List host functions
  output [name]   Show or set the result encoding (native, html, json, yaml)
  edit            Write a script in $EDITOR and evaluate it
  reset           Discard session variables
  clear           Clear screen
  quit            Exit

Usage:
  Type statements to run them; variables persist between lines
  A line ending in an expression prints its value
  Completions appear as you type; Tab / Shift-Tab cycle through them
  Up/Down walk the history; Shift-Up/Shift-Down stay in the current mode
  Press Ctrl-C on an empty line or Ctrl-D to exit
`

// inputMode selects what the prompt does with a line.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// tag prefixes entries of this mode in the history file.
func (m inputMode) tag() string {
	if m == modeCtrl {
		return "C:"
	}

	return "E:"
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	printStyle      = lipgloss.NewStyle()
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	paramStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = suggestionStyle.Bold(true)
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// Config configures an interactive session.
type Config struct {
	// Options configure the runtime evaluating each line.
	Options []lang.Option
	// Bindings are the variables the session starts with.
	Bindings map[string]lang.Value
	// History is the path of the history file. Empty keeps history in
	// memory.
	History string
	// Output names the initial result encoding; see [Outputs].
	Output string
	// Indent is the indent width of results.
	Indent int
}

// savedInput is the text and cursor of an inactive mode's input line.
type savedInput struct {
	text   string
	cursor int
}

// model is the Bubble Tea model of the prompt.
type model struct {
	ctx     context.Context
	sess    *lang.Session
	printed *bytes.Buffer // output of std::print since the last line
	input   textinput.Model
	history *History
	histIdx int
	mode    inputMode
	saved   [2]savedInput
	output  string
	indent  int

	matches   fuzzy.Matches
	wordStart int
	wordEnd   int
	selected  int  // index into matches while cycling, else -1
	cycling   bool // Tab has replaced the current word
	preTab    savedInput

	width    int
	quitting bool
}

// Run starts an interactive session on the terminal.
func Run(ctx context.Context, cfg Config, opts ...tea.ProgramOption) error {
	history := NewHistory(cfg.History)

	err := history.Load()
	if err != nil {
		log.WarnContext(ctx, "could not load history",
			slog.String("file", cfg.History), slog.Any("error", err))
	}

	m := newModel(ctx, cfg, history)

	log.DebugContext(ctx, "repl start",
		slog.Int("history", history.Len()),
		slog.Int("variables", m.sess.Len()))

	_, err = tea.NewProgram(m, append(opts, tea.WithContext(ctx))...).Run()

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, cfg Config, history *History) model {
	printed := &bytes.Buffer{}

	rt := lang.New(
		stdlib.NewRegistry(stdlib.WithOutput(printed)),
		append(slices.Clone(cfg.Options), lang.WithCache(nil))...,
	)

	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.CharLimit = 4096
	ti.Width = defaultWidth
	ti.Focus()

	output := cfg.Output
	if !slices.Contains(Outputs, output) {
		output = Outputs[0]
	}

	return model{
		ctx:      ctx,
		sess:     rt.NewSession(cfg.Bindings),
		printed:  printed,
		input:    ti,
		history:  history,
		histIdx:  history.Len(),
		mode:     modeEval,
		output:   output,
		indent:   cfg.Indent,
		selected: -1,
		width:    defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-lipgloss.Width(evalPrompt)-2, 1)

		return m, nil

	case editDoneMsg:
		m.saved[modeEval] = savedInput{}

		return m.run(msg.source, msg.ast)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("edit: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return m.input.View() + "\n" + m.hint() + "\n"
}

// hint renders the line below the prompt.
func (m model) hint() string {
	input := m.input.Value()

	if m.histIdx < m.history.Len() {
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.histIdx + 1))

		return hintStyle.Render(fmt.Sprintf("%s/%d", pos, m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeCtrl {
			return hintStyle.Render("Type a command, or help (press Esc to return)")
		}

		return hintStyle.Render("Type a statement or press Esc for commands")
	}

	if len(m.matches) > 0 {
		return renderCandidateBar(m.matches, m.selected, m.width)
	}

	if m.mode == modeEval {
		if c, ok := enclosingCall(input, m.offset()); ok {
			if fn, ok := lookupCall(m.sess.Runtime().Registry(), c); ok {
				return renderSignature(fn, c.arg)
			}
		}
	}

	return ""
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.cycling = false
		m.histIdx = m.history.Len()
		m.refresh(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.cycling && len(m.matches) > 0 {
			m.cycling = false
			m.refresh(true)

			return m, nil
		}

		return m.submit()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.recall(m.histIdx-1, -1, false), nil

	case tea.KeyDown:
		return m.recall(m.histIdx+1, 1, false), nil

	case tea.KeyShiftUp:
		return m.recall(m.histIdx, -1, true), nil

	case tea.KeyShiftDown:
		return m.recall(m.histIdx, 1, true), nil

	case tea.KeyEsc:
		if m.cycling {
			m.cycling = false
			m.input.SetValue(m.preTab.text)
			m.input.SetCursor(m.preTab.cursor)
			m.refresh(false)

			return m, nil
		}

		if m.mode == modeEval {
			return m.switchMode(modeCtrl), nil
		}

		return m.switchMode(modeEval), nil
	}

	// Any other key keeps the chosen candidate.
	m.cycling = false
	typed := msg.Type == tea.KeyRunes

	var cmd tea.Cmd

	m.histIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh(typed)

	return m, cmd
}

// cycle replaces the current word with the next candidate in direction dir.
// A sole candidate is accepted outright.
func (m model) cycle(dir int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		m.replaceWord(m.matches[0].Str)
		m.cycling = false
		m.selected = -1
		m.matches = nil

		return m
	}

	switch {
	case m.cycling:
		m.selected = (m.selected + dir + n) % n
	case dir > 0:
		m.selected = 0
	default:
		m.selected = n - 1
	}

	if !m.cycling {
		m.cycling = true
		m.preTab = savedInput{m.input.Value(), m.input.Position()}
	}

	m.replaceWord(m.matches[m.selected].Str)

	return m
}

// replaceWord substitutes s for the word being completed.
func (m *model) replaceWord(s string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.wordStart] + s + input[m.wordEnd:])
	m.input.SetCursor(utf8.RuneCountInString(input[:m.wordStart]) + utf8.RuneCountInString(s))
	m.wordEnd = m.wordStart + len(s)
}

// offset returns the byte offset of the cursor, which the input reports in
// runes.
func (m model) offset() int {
	runes := []rune(m.input.Value())

	return len(string(runes[:min(m.input.Position(), len(runes))]))
}

// refresh recomputes completions after the input changed. When the input
// was typed and the word already equals the sole candidate, the candidate
// is accepted.
func (m *model) refresh(typed bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()
	m.selected = -1

	if !typed || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.matches = nil
	}
}

// recall moves through the history. In any mode it follows every entry and
// switches mode to match; otherwise it skips entries of the other mode.
// Stepping past the newest entry clears the input.
func (m model) recall(i, dir int, inMode bool) model {
	if inMode {
		i = m.history.search(i, dir, m.mode)
		if i < 0 && dir > 0 {
			i = m.history.Len()
		}
	}

	switch {
	case i < 0:
		return m

	case i >= m.history.Len():
		m.histIdx = m.history.Len()
		m.input.SetValue("")

	default:
		e, err := m.history.At(i)
		if err != nil {
			return m
		}

		if e.Mode != m.mode {
			m = m.switchMode(e.Mode)
		}

		m.histIdx = i
		m.input.SetValue(e.Line)
		m.input.CursorEnd()
	}

	m.cycling = false
	m.refresh(false)

	return m
}

// switchMode changes mode, keeping each mode's unfinished input.
func (m model) switchMode(mode inputMode) model {
	m.saved[m.mode] = savedInput{m.input.Value(), m.input.Position()}
	m.mode = mode

	if mode == modeCtrl {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	} else {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	}

	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	m.cycling = false
	m.refresh(false)

	return m
}

// submit runs the current line.
func (m model) submit() (model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	m.saved[m.mode] = savedInput{}
	m.input.SetValue("")
	m.matches = nil

	err := m.history.Add(line, m.mode)
	if err != nil {
		log.DebugContext(m.ctx, "could not save history", slog.Any("error", err))
	}

	m.histIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.command(line)
	}

	ast, err := m.sess.Runtime().Parse(m.ctx, line)
	if err != nil {
		return m, tea.Sequence(
			tea.Println(echo(evalPrompt, promptStyle, line)),
			tea.Println(errorStyle.Render(lang.FormatError(line, err))),
		)
	}

	var cmd tea.Cmd

	m, cmd = m.run(line, printLast(ast))

	return m, tea.Sequence(tea.Println(echo(evalPrompt, promptStyle, line)), cmd)
}

// run evaluates ast in the session and prints what it wrote and returned.
func (m model) run(source string, ast *lang.AST) (model, tea.Cmd) {
	m.printed.Reset()

	v, err := m.sess.Run(m.ctx, ast)

	var cmds []tea.Cmd

	if s := strings.TrimRight(m.printed.String(), "\n"); s != "" {
		cmds = append(cmds, tea.Println(printStyle.Render(s)))
	}

	switch {
	case err != nil:
		msg := strings.TrimRight(lang.FormatError(source, err), "\n")
		cmds = append(cmds, tea.Println(errorStyle.Render(msg)))

	case !v.IsNone():
		var b strings.Builder

		err = m.render(&b, v)
		if err != nil {
			cmds = append(cmds, tea.Println(errorStyle.Render(err.Error())))
		} else {
			cmds = append(cmds, tea.Println(resultStyle.Render(strings.TrimRight(b.String(), "\n"))))
		}
	}

	return m, tea.Sequence(cmds...)
}

// render encodes v in the selected output format.
func (m model) render(w io.Writer, v lang.Value) error {
	switch m.output {
	case "html":
		return lang.FormatHTML(w, v)
	case "json":
		return lang.FormatJSON(w, v, m.indent)
	case "yaml":
		return lang.FormatYAML(m.ctx, w, v, m.indent)
	default:
		return lang.Format(w, v, m.indent)
	}
}

// printLast returns ast with a trailing expression statement turned into a
// return, so that its value is printed.
func printLast(ast *lang.AST) *lang.AST {
	stmts := ast.Root.Statements
	if len(stmts) == 0 {
		return ast
	}

	last := stmts[len(stmts)-1]

	switch last.(type) {
	case *lang.Assignment, *lang.Return, *lang.If, *lang.ForIn, *lang.While, *lang.Block:
		return ast
	}

	root := *ast.Root
	root.Statements = append(slices.Clip(stmts[:len(stmts)-1]),
		&lang.Return{Value: last, At: last.Pos()})

	return &lang.AST{Root: &root, Source: ast.Source}
}

// command executes a control-mode line.
func (m model) command(line string) (model, tea.Cmd) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	echoCmd := tea.Println(echo(ctrlPrompt, ctrlPromptStyle, line))

	log.TraceContext(m.ctx, "repl command",
		slog.String("command", name), slog.String("arg", arg))

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage))

	case "v", "vars":
		return m, tea.Sequence(echoCmd, tea.Println(m.listVariables()))

	case "f", "funcs":
		return m, tea.Sequence(echoCmd, tea.Println(m.listFunctions(arg)))

	case "o", "output":
		if arg != "" {
			if !slices.Contains(Outputs, arg) {
				return m, tea.Sequence(echoCmd, tea.Println(errorStyle.Render(
					"unknown output " + strconv.Quote(arg) +
						" (want " + strings.Join(Outputs, ", ") + ")")))
			}

			m.output = arg
		}

		return m, tea.Sequence(echoCmd, tea.Println(hintStyle.Render("output: "+m.output)))

	case "r", "reset":
		m.sess.Reset()

		return m, tea.Sequence(echoCmd, tea.Println(hintStyle.Render("variables cleared")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.edit())

	default:
		return m, tea.Println(errorStyle.Render("unknown command: " + name + " (try help)"))
	}
}

func (m model) listVariables() string {
	if m.sess.Len() == 0 {
		return hintStyle.Render("  no variables")
	}

	var b strings.Builder

	for name, v := range m.sess.Variables() {
		fmt.Fprintf(&b, "  @%s %s\n", name, hintStyle.Render(preview(v)))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m model) listFunctions(module string) string {
	reg := m.sess.Runtime().Registry()

	modules := reg.Modules()
	if module != "" {
		modules = []string{module}
	}

	var b strings.Builder

	for _, mod := range modules {
		for _, name := range reg.Functions(mod) {
			fn, err := reg.Lookup(mod, name)
			if err != nil {
				continue
			}

			b.WriteString("  " + renderSignature(fn, -1) + "\n")
		}
	}

	if b.Len() == 0 {
		return hintStyle.Render("  no functions")
	}

	return strings.TrimRight(b.String(), "\n")
}

// preview is a one-line excerpt of v.
func preview(v lang.Value) string {
	const width = 40

	s := []rune(strings.Join(strings.Fields(lang.FormatValue(v)), " "))
	if len(s) > width {
		s = append(s[:width-3], []rune("...")...)
	}

	return v.Kind().String() + " " + string(s)
}

// echo renders a submitted line after its prompt.
func echo(prompt string, style lipgloss.Style, line string) string {
	return style.Render(prompt) + inputStyle.Render(line)
}
