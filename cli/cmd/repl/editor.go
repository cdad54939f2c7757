package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/dioscript/lang"
)

const defaultEditor = "vi"

// editDoneMsg carries a script written in the editor.
type editDoneMsg struct {
	source string
	ast    *lang.AST
}

// editCancelledMsg is sent when the editor saved an empty script.
type editCancelledMsg struct{}

// editErrorMsg is sent when the editor could not be run.
type editErrorMsg struct{ err error }

// editCommand implements [tea.ExecCommand]. It opens $EDITOR on a temporary
// script and parses the result, offering to edit again until the script
// parses or the user declines.
type editCommand struct {
	ctx     context.Context
	runtime *lang.Runtime
	initial string

	source string
	ast    *lang.AST

	stdin          io.Reader
	stdout, stderr io.Writer
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run implements [tea.ExecCommand].
func (c *editCommand) Run() error {
	f, err := os.CreateTemp("", "dioscript-*.dio")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	_, err = f.WriteString(c.initial)
	if err = errors.Join(err, f.Close()); err != nil {
		return err
	}

	answers := bufio.NewScanner(c.stdin)

	for {
		err = runEditor(c.ctx, c.stdin, c.stdout, c.stderr, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		source := string(data)
		if strings.TrimSpace(source) == "" {
			return nil
		}

		ast, err := c.runtime.Parse(c.ctx, source)
		if err == nil {
			c.source, c.ast = source, printLast(ast)

			return nil
		}

		fmt.Fprintln(c.stderr, strings.TrimRight(lang.FormatError(source, err), "\n"))
		fmt.Fprint(c.stdout, "Edit again? [Y/n] ")

		if !answers.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(answers.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor runs the user's editor on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}

	if editor == "" {
		editor = defaultEditor
	}

	args := strings.Fields(editor)

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdin, stdout, stderr

	return cmd.Run()
}

// edit suspends the prompt to write a script in the editor, seeded with
// the unfinished eval-mode line.
func (m model) edit() tea.Cmd {
	c := &editCommand{
		ctx:     m.ctx,
		runtime: m.sess.Runtime(),
		initial: m.saved[modeEval].text,
	}

	return tea.Exec(c, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editCancelledMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case c.ast == nil:
			return editCancelledMsg{}
		}

		return editDoneMsg{source: c.source, ast: c.ast}
	})
}
