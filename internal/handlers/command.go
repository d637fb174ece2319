package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/angeloszaimis/widget-server/internal/server"
)

// commandWaitDelay bounds how long Run waits for the output pipes after the
// command has been killed.
const commandWaitDelay = 500 * time.Millisecond

// Command describes a shell command widget.
type Command struct {
	Description string
	Name        string
	Args        []string
	Timeout     time.Duration
}

// CommandLine renders the command the way a shell prompt would show it.
func (c Command) CommandLine() string {
	return strings.Join(append([]string{"$", c.Name}, c.Args...), " ")
}

// Run executes the command and returns stderr followed by stdout. A non-zero
// exit status is not an error: the output is still shown.
func (c Command) Run(ctx context.Context) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that inherit the pipes must not outlive the timeout.
	cmd.WaitDelay = commandWaitDelay
	killProcessGroupOnCancel(cmd)

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("run %q: %w", c.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", fmt.Errorf("run %q: %w", c.Name, err)
	}

	return stderr.String() + stdout.String(), nil
}

// CommandPage renders the command output as an HTML page.
type CommandPage struct {
	command Command
}

func NewCommandPage(c Command) *CommandPage {
	return &CommandPage{command: c}
}

func (h *CommandPage) RequiresOffload() bool { return true }

func (h *CommandPage) Handle(rc *server.RequestContext) (*server.Response, error) {
	output, err := h.command.Run(rc.Context())
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("Now: %s\n\n%s\n\n%s", formatTime(time.Now()), h.command.CommandLine(), output)

	body, err := renderWidget(h.command.Description, text)
	if err != nil {
		return nil, err
	}

	return server.NewResponse(http.StatusOK, server.ContentTypeTextHTML, body), nil
}

type commandAPIResponse struct {
	Now         string `json:"now"`
	CommandLine string `json:"command_line"`
	Output      string `json:"output"`
}

// CommandAPI returns the command output as JSON.
type CommandAPI struct {
	command Command
}

func NewCommandAPI(c Command) *CommandAPI {
	return &CommandAPI{command: c}
}

func (h *CommandAPI) RequiresOffload() bool { return true }

func (h *CommandAPI) Handle(rc *server.RequestContext) (*server.Response, error) {
	output, err := h.command.Run(rc.Context())
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(commandAPIResponse{
		Now:         formatTime(time.Now()),
		CommandLine: h.command.CommandLine(),
		Output:      output,
	})
	if err != nil {
		return nil, fmt.Errorf("encode command response: %w", err)
	}

	return server.NewResponse(http.StatusOK, server.ContentTypeJSON, body), nil
}
