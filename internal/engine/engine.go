// Package engine runs the external cluster expansion engine. Each operation
// is one subprocess: a JSON request on stdin, a JSON response on stdout.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/papapumpkin/casmproj/internal/errkind"
)

// DefaultCommand is the engine executable used when none is configured.
const DefaultCommand = "casm-engine"

// Operation names understood by the engine.
const (
	OpStandardAxes    = "standard_axes"
	OpSymmetry        = "symmetry"
	OpNeighborList    = "nlist_weight_matrix"
	OpMakeBasisSpecs  = "make_bspecs"
	OpBuildBasis      = "build_basis"
	OpWriteClexulator = "write_clexulator"
	OpCompile         = "compile_clexulator"
	OpCorrelations    = "correlations"
)

// Engine invokes the external engine for one project.
type Engine struct {
	Command string
	Args    []string
	Env     map[string]string
	Timeout time.Duration
	Project string    // project root sent with every request
	Verbose bool      // echo invocations to Log
	Log     io.Writer // defaults to os.Stderr
}

// New returns an Engine for the project at root.
func New(cfg Config, root string) *Engine {
	cmd := cfg.Command
	if cmd == "" {
		cmd = DefaultCommand
	}
	return &Engine{
		Command: cmd,
		Args:    cfg.Args,
		Env:     cfg.Env,
		Timeout: cfg.Timeout,
		Project: root,
		Verbose: cfg.Verbose,
	}
}

type request struct {
	Op      string `json:"op"`
	Project string `json:"project"`
	Args    any    `json:"args"`
}

type response struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// buildEnv appends the configured variables to base in a stable order.
func buildEnv(base []string, extra map[string]string) []string {
	env := make([]string, 0, len(base)+len(extra))
	env = append(env, base...)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

func (e *Engine) logf(format string, args ...any) {
	if !e.Verbose {
		return
	}
	w := e.Log
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "[engine] "+format+"\n", args...)
}

// Call runs op with args and decodes the result into out. out may be nil.
func (e *Engine) Call(ctx context.Context, op string, args any, out any) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(request{Op: op, Project: e.Project, Args: args})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", op, err)
	}

	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Dir = e.Project
	cmd.SysProcAttr = sessionAttr()
	cmd.Env = buildEnv(os.Environ(), e.Env)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logf("running %s %s (op=%s)", e.Command, strings.Join(e.Args, " "), op)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		return errkind.New(errkind.EngineFailure, "engine."+op, "",
			fmt.Errorf("engine invocation failed: %w\nstderr: %s", err, stderr.String()))
	}
	e.logf("%s finished in %s", op, time.Since(start).Round(time.Millisecond))

	var resp response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return errkind.New(errkind.EngineFailure, "engine."+op, "",
			fmt.Errorf("parsing engine output: %w\nraw output: %s", err, stdout.String()))
	}
	if !resp.OK {
		return errkind.New(errkind.EngineFailure, "engine."+op, "",
			fmt.Errorf("engine returned error: %s", resp.Error))
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return errkind.New(errkind.EngineFailure, "engine."+op, "",
			fmt.Errorf("decoding %s result: %w", op, err))
	}
	return nil
}

// Validate checks that the engine runs by asking for its version.
func (e *Engine) Validate(ctx context.Context) (string, error) {
	args := append(append([]string(nil), e.Args...), "--version")
	cmd := exec.CommandContext(ctx, e.Command, args...)
	cmd.Env = buildEnv(os.Environ(), e.Env)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("engine not runnable at %q: %w", e.Command, err)
	}
	version := strings.TrimSpace(string(out))
	e.logf("version: %s", version)
	return version, nil
}
