package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ayusman/abhinaya/internal/log"
)

// DefaultTimeout bounds a single plugin run.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when a plugin does not finish in time.
var ErrTimeout = errors.New("plugin execution timeout")

// Executor handles the execution of plugins with timeout support.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates a new Executor. A non-positive timeout uses DefaultTimeout.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{
		timeout: timeout,
	}
}

// Timeout returns the per-run timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs a plugin with the given request and returns the response.
// The request is sent as JSON on stdin and stdout is parsed as a Response.
// The run is cancelled when ctx is done or the executor timeout expires.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, fmt.Errorf("plugin execution failed: %w, stderr: %s", err, s)
		}
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, stdout.String())
	}

	log.Debug("plugin executed",
		"plugin", plugin.Manifest.Name,
		"action", req.Action,
		"gesture", req.Gesture,
		"success", response.Success,
		"elapsed", time.Since(start))

	return &response, nil
}
