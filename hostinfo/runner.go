package hostinfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// PlatformReleaseTimeout bounds the platform version subprocess.
const PlatformReleaseTimeout = 3000 * time.Millisecond

// ErrUnsupportedPlatform is returned by PlatformRelease for operating systems
// without a known version command.
var ErrUnsupportedPlatform = errors.New("no platform release command for this operating system")

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run starts name with args and waits for it. The process is killed when ctx
// is done. A non-zero exit is reported as an error carrying stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 250 * time.Millisecond

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("run %s: %w", name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), fmt.Errorf("run %s: exit %d: %s: %w", name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()), err)
	}
	return nil, fmt.Errorf("run %s: %w", name, err)
}

// PlatformRelease runs the read-only version command for goos and returns a
// section label with the trimmed command output. The command is bounded by
// PlatformReleaseTimeout. Empty output is reported as an error so callers can
// omit the section.
func PlatformRelease(ctx context.Context, runner Runner, goos string) (label, text string, err error) {
	var (
		name string
		args []string
	)
	switch goos {
	case "darwin":
		label, name = "macOS Info:", "sw_vers"
	case "windows":
		label, name, args = "Windows Info:", "cmd", []string{"/c", "ver"}
	case "linux":
		label, name, args = "Linux Info:", "head", []string{"-n", "5", "/etc/os-release"}
	default:
		return "", "", ErrUnsupportedPlatform
	}

	ctx, cancel := context.WithTimeout(ctx, PlatformReleaseTimeout)
	defer cancel()

	out, err := runner.Run(ctx, name, args...)
	if err != nil {
		return "", "", err
	}
	text = strings.TrimSpace(string(out))
	if text == "" {
		return "", "", fmt.Errorf("%s produced no output", name)
	}
	return label, text, nil
}
