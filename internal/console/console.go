// Package console implements the interactive command line of fluid: it reads
// commands, dispatches them to the engine and renders the outcomes.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"fluid/internal/adapt"
	"fluid/internal/compiler"
	"fluid/internal/engine"
	"fluid/internal/history"
	"fluid/internal/logging"
	"fluid/internal/outcome"
)

// DefaultPrompt is printed before every command.
const DefaultPrompt = "fluid:~$ "

// Console is a line-oriented front end over an engine. It is not safe for
// concurrent use.
type Console struct {
	engine   *engine.Engine
	adapter  *adapt.Adapter
	compiler *compiler.Compiler
	history  *history.Store
	session  uuid.UUID

	in        *bufio.Scanner
	approvals *bufio.Scanner
	autoYes   bool
	out       io.Writer
	prompt    string
	color     bool
	styles    Styles
	commands  map[string]*command
	log       *logging.Logger
}

// Option configures a Console.
type Option func(*Console)

// WithInput reads commands and approvals from r.
func WithInput(r io.Reader) Option {
	return func(c *Console) { c.in = bufio.NewScanner(r) }
}

// WithApprovals reads approval answers from r instead of the command input.
func WithApprovals(r io.Reader) Option {
	return func(c *Console) { c.approvals = bufio.NewScanner(r) }
}

// WithAutoApprove approves every adaptation candidate without asking.
func WithAutoApprove(on bool) Option {
	return func(c *Console) { c.autoYes = on }
}

// WithOutput writes everything to w.
func WithOutput(w io.Writer) Option {
	return func(c *Console) { c.out = w }
}

// WithPrompt replaces the default prompt.
func WithPrompt(p string) Option {
	return func(c *Console) {
		if p != "" {
			c.prompt = p
		}
	}
}

// WithCompiler enables the compile command.
func WithCompiler(comp *compiler.Compiler) Option {
	return func(c *Console) { c.compiler = comp }
}

// WithHistory records every command in s and enables the history command.
func WithHistory(s *history.Store) Option {
	return func(c *Console) { c.history = s }
}

// WithSession sets the session id used for history rows and log fields.
func WithSession(id uuid.UUID) Option {
	return func(c *Console) { c.session = id }
}

// WithColor enables terminal styling of help output.
func WithColor(on bool) Option {
	return func(c *Console) { c.color = on }
}

// New creates a console over e reading stdin and writing stdout unless
// configured otherwise.
func New(e *engine.Engine, opts ...Option) *Console {
	c := &Console{
		engine:  e,
		adapter: adapt.New(e),
		session: uuid.New(),
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		prompt:  DefaultPrompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.styles = NewStyles(lipgloss.NewRenderer(c.out))
	c.commands = commandTable()
	c.log = logging.Get(logging.CategoryConsole).With("session", c.session.String())
	return c
}

// Session returns the console's session id.
func (c *Console) Session() uuid.UUID { return c.session }

// Run reads and executes commands until exit, end of input or
// cancellation of ctx.
func (c *Console) Run(ctx context.Context) error {
	c.log.Info("console started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, c.styles.Prompt.Render(c.prompt))
		line, ok := c.readLine()
		if !ok {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}
		if !c.Execute(ctx, line) {
			c.log.Info("console exited")
			return nil
		}
	}
}

// Execute runs one command line and reports whether the console should
// keep reading.
func (c *Console) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return true
	}

	tokens, err := split(line)
	if err != nil {
		c.report(outcome.Failed("cannot read command").WithError(err))
		c.record(ctx, line, false)
		return true
	}

	name := strings.ToLower(tokens[0])
	cmd, ok := c.commands[name]
	if !ok {
		c.report(outcome.Failed("unknown command %s; try help", tokens[0]))
		c.record(ctx, line, false)
		return true
	}
	if cmd.exit {
		return false
	}

	args := tokens[1:]
	var o *outcome.Outcome
	if len(args) < cmd.min || (cmd.max >= 0 && len(args) > cmd.max) {
		o = outcome.Failed("usage: %s", cmd.usage)
	} else {
		c.log.Debug("dispatch %s %v", name, args)
		o = cmd.run(ctx, c, args)
	}
	c.report(o)
	c.record(ctx, line, !o.IsFailure() && !o.HasError())
	return true
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

// approve asks the user about an adaptation candidate. Anything but an
// explicit no approves, end of input included.
func (c *Console) approve(o *outcome.Outcome) bool {
	if c.autoYes {
		c.log.Debug("auto-approved: %s", o.Message())
		return true
	}
	msgs := o.Messages()
	for i, m := range msgs {
		if i == len(msgs)-1 {
			fmt.Fprintf(c.out, "%s %s ", m, c.styles.Prompt.Render("[Y/n]"))
			break
		}
		fmt.Fprintln(c.out, c.styles.Warning.Render(m))
	}
	src := c.in
	if c.approvals != nil {
		src = c.approvals
	}
	var answer string
	if src.Scan() {
		answer = src.Text()
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "n", "no":
		return false
	}
	return true
}

// report prints the message log of o, its target when it carries a result
// and a chained diagnostic when it carries an error.
func (c *Console) report(o *outcome.Outcome) {
	style := c.styles.Muted
	if o.IsFailure() {
		style = c.styles.Warning
	}
	for _, m := range o.Messages() {
		fmt.Fprintln(c.out, style.Render(m))
	}
	if o.IsSuccess() && o.HasTarget() {
		fmt.Fprintf(c.out, "%s %v\n", c.styles.Success.Render("=>"), o.TargetValue())
	}
	if o.HasError() {
		for i, line := range outcome.Chain(o.Err()) {
			if i == 0 {
				fmt.Fprintln(c.out, c.styles.Error.Render("error: "+line))
				continue
			}
			fmt.Fprintf(c.out, "  caused by: %s\n", line)
		}
	}
}

func (c *Console) record(ctx context.Context, line string, ok bool) {
	if c.history == nil {
		return
	}
	if err := c.history.Record(ctx, history.Entry{Session: c.session, Command: line, OK: ok}); err != nil {
		c.log.Warn("history not recorded: %v", err)
	}
}
