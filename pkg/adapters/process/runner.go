// Package process provides a ports.HandlerRepository running local commands.
//
// Only the commands of the allow-list are run. The action contexts are passed
// both as TICK_CTX_<NAME> environment variables and as a JSON object on stdin.
// The command answers with a JSON object on stdout, read as the produced
// contexts; an empty stdout produces nothing.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
)

var (
	_ ports.HandlerRepository = (*Runner)(nil)
	_ ports.HandlerCatalog    = (*Runner)(nil)
)

// EnvPrefix prefixes the context variables given to the commands.
const EnvPrefix = "TICK_CTX_"

// maxStderr is how much of stderr is kept in a failure.
const maxStderr = 512

// Runner executes the registered commands.
type Runner struct {
	registry map[string]Tool
	baseDir  string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithTools populates the allow-list from a loaded tools file.
func WithTools(tools map[string]Tool) RunnerOption {
	return func(r *Runner) {
		for _, t := range tools {
			r.registry[t.Handler] = t
		}
	}
}

// WithBaseDir sets the working directory of the commands.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a runner with an empty allow-list.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{registry: make(map[string]Tool)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(handler, command string, args ...string) {
	r.registry[handler] = Tool{Handler: handler, Command: command, Args: args}
}

// Has implements ports.HandlerCatalog.
func (r *Runner) Has(handler string) bool {
	_, ok := r.registry[handler]
	return ok
}

// Invoke implements ports.HandlerRepository.
func (r *Runner) Invoke(ctx context.Context, handler string, contexts map[string]any) (map[string]any, error) {
	tool, ok := r.registry[handler]
	if !ok {
		return nil, &domain.HandlerError{Handler: handler, Err: domain.ErrHandlerNotFound}
	}

	if contexts == nil {
		contexts = map[string]any{}
	}
	stdin, err := json.Marshal(contexts)
	if err != nil {
		return nil, fmt.Errorf("process %s: encode: %w", handler, err)
	}

	// Contexts never reach the arguments, only the environment and stdin.
	cmd := exec.CommandContext(ctx, tool.Command, tool.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environment(tool, contexts)...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("process %s: %w", handler, ctx.Err())
		}
		return nil, &ExitError{Handler: handler, Err: err, Stderr: truncate(strings.TrimSpace(stderr.String()))}
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, nil
	}
	var produced map[string]any
	if err := json.Unmarshal(out, &produced); err != nil {
		return nil, fmt.Errorf("process %s: stdout is not a JSON object: %w", handler, err)
	}
	return produced, nil
}

func environment(tool Tool, contexts map[string]any) []string {
	env := make([]string, 0, len(tool.Environment)+len(contexts))
	for k, v := range tool.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range contexts {
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+format(v))
	}
	return env
}

// format renders scalars as text and the rest as JSON.
func format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprint(v)
}

func truncate(s string) string {
	if len(s) <= maxStderr {
		return s
	}
	return s[:maxStderr]
}

// ExitError reports a command that failed to run or exited non-zero.
type ExitError struct {
	Handler string
	Err     error
	Stderr  string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("process %s: %v", e.Handler, e.Err)
	}
	return fmt.Sprintf("process %s: %v: %s", e.Handler, e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
