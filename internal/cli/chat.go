package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/tick"
	"github.com/aretw0/tick/internal/presentation/tui"
	"github.com/aretw0/tick/pkg/adapters/sender"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"gopkg.in/yaml.v3"
)

// ChatEngine is the subset of *tick.Engine driven by the chat prompt.
type ChatEngine interface {
	ProcessWith(ctx context.Context, conversationID string, action domain.UserAction, s ports.Sender) (tick.Result, error)
	Session(ctx context.Context, conversationID string) (domain.Session, error)
	Reset(ctx context.Context, conversationID string) error
	Story() domain.Configuration
	Graph(s *domain.Session) string
}

var _ ChatEngine = (*tick.Engine)(nil)

// ChatOptions configures RunChat.
type ChatOptions struct {
	ConversationID string
	// Labels resolve the answer ids. Missing ids are printed as [id].
	Labels sender.Labels
	// Render, when set, renders each label as markdown.
	Render func(string) (string, error)
	// Styled colors the bot messages.
	Styled bool
	// Mirror also receives every message, e.g. a broker.
	Mirror ports.Sender
}

const chatHelp = `  intent [CONTEXT=value ...] [@role=value ...]   send an intent
  !trigger                                        fire a trigger
  /session  /graph  /reset  /help  /quit`

type commandKind int

const (
	cmdEmpty commandKind = iota
	cmdAction
	cmdHelp
	cmdQuit
	cmdReset
	cmdSession
	cmdGraph
)

type command struct {
	kind   commandKind
	action domain.UserAction
}

var slashCommands = map[string]commandKind{
	"/help":    cmdHelp,
	"/quit":    cmdQuit,
	"/exit":    cmdQuit,
	"/reset":   cmdReset,
	"/session": cmdSession,
	"/graph":   cmdGraph,
}

// parseLine reads one prompt line. Values are parsed as YAML scalars, so
// AGE=3 yields an int and NAME=~ an explicit absence.
func parseLine(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{kind: cmdEmpty}, nil
	}

	head, args := fields[0], fields[1:]
	if strings.HasPrefix(head, "/") {
		kind, ok := slashCommands[head]
		if !ok {
			return command{}, fmt.Errorf("unknown command %s, try /help", head)
		}
		return command{kind: kind}, nil
	}

	action := domain.UserAction{Name: head}
	if name, ok := strings.CutPrefix(head, "!"); ok {
		if name == "" {
			return command{}, errors.New("missing trigger name")
		}
		action = domain.Trigger(name)
	}

	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" || key == "@" {
			return command{}, fmt.Errorf("expected NAME=value, got %q", arg)
		}
		if role, isEntity := strings.CutPrefix(key, "@"); isEntity {
			if action.Entities == nil {
				action.Entities = map[string]any{}
			}
			action.Entities[role] = parseValue(raw)
			continue
		}
		if action.Contexts == nil {
			action.Contexts = map[string]any{}
		}
		action.Contexts[key] = parseValue(raw)
	}
	return command{kind: cmdAction, action: action}, nil
}

func parseValue(raw string) any {
	if raw == "" {
		return ""
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// LoadLabels reads a YAML map of label id to text.
func LoadLabels(path string) (sender.Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	labels := sender.Labels{}
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels %s: %w", path, err)
	}
	return labels, nil
}

// CompleteLabels returns labels resolving every answer id of the story, ids
// without text standing for themselves.
func CompleteLabels(cfg domain.Configuration, labels sender.Labels) sender.Labels {
	out := make(sender.Labels, len(labels))
	for id, text := range labels {
		out[id] = text
	}
	add := func(id string) {
		if _, ok := out[id]; id != "" && !ok {
			out[id] = "[" + id + "]"
		}
	}
	for _, a := range cfg.Actions {
		add(a.AnswerID)
	}
	for _, ans := range cfg.Unknown.Answers {
		add(ans.AnswerID)
	}
	return out
}

type chat struct {
	eng  ChatEngine
	out  io.Writer
	opts ChatOptions
	send ports.Sender
}

// RunChat runs an interactive conversation until /quit, the end of in, or
// the cancellation of ctx.
func RunChat(ctx context.Context, eng ChatEngine, in io.Reader, out io.Writer, opts ChatOptions) error {
	labels := CompleteLabels(eng.Story(), opts.Labels)
	if opts.Render != nil {
		labels = tui.RenderLabels(labels, opts.Render)
	}
	if opts.Styled {
		for id, text := range labels {
			labels[id] = tui.Bot(text).String()
		}
	}

	c := &chat{eng: eng, out: out, opts: opts}
	c.send = sender.NewWriter(out, labels)
	if opts.Mirror != nil {
		c.send = sender.Tee(c.send, opts.Mirror)
	}

	printSystemMessage(out, "Conversation '%s' on story '%s'. /help lists the commands.", opts.ConversationID, eng.Story().ID)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		fmt.Fprint(out, "> ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(out)
			select {
			case err := <-scanErr:
				return err
			default:
				return nil
			}
		}

		cmd, err := parseLine(line)
		if err != nil {
			c.notice("%v", err)
			continue
		}
		if cmd.kind == cmdQuit {
			return nil
		}
		if err := c.run(ctx, cmd); err != nil {
			return err
		}
	}
}

func (c *chat) run(ctx context.Context, cmd command) error {
	id := c.opts.ConversationID
	switch cmd.kind {
	case cmdHelp:
		fmt.Fprintln(c.out, chatHelp)
	case cmdReset:
		if err := c.eng.Reset(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		c.notice("conversation reset")
	case cmdSession:
		s, err := c.eng.Session(ctx, id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.notice("no session yet")
			return nil
		}
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, string(data))
	case cmdGraph:
		var overlay *domain.Session
		if s, err := c.eng.Session(ctx, id); err == nil {
			overlay = &s
		}
		fmt.Fprintln(c.out, c.eng.Graph(overlay))
	case cmdAction:
		res, err := c.eng.ProcessWith(ctx, id, cmd.action, c.send)
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			c.notice("turn failed: %v", err)
			return nil
		}
		if res.Redirect != "" {
			c.notice("conversation continues in story '%s'", res.Redirect)
		} else if res.Finished {
			c.notice("conversation finished")
		}
	}
	return nil
}

func (c *chat) notice(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if c.opts.Styled {
		text = tui.Notice(text).String()
	}
	printSystemMessage(c.out, "%s", text)
}
