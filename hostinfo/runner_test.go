package hostinfo

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

type recordingRunner struct {
	out      []byte
	err      error
	name     string
	args     []string
	deadline time.Time
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.name, r.args = name, args
	r.deadline, _ = ctx.Deadline()
	return r.out, r.err
}

func TestPlatformRelease_Commands(t *testing.T) {
	cases := []struct {
		goos      string
		wantLabel string
		wantCmd   string
	}{
		{goos: "darwin", wantLabel: "macOS Info:", wantCmd: "sw_vers"},
		{goos: "windows", wantLabel: "Windows Info:", wantCmd: "cmd /c ver"},
		{goos: "linux", wantLabel: "Linux Info:", wantCmd: "head -n 5 /etc/os-release"},
	}
	for _, tc := range cases {
		t.Run(tc.goos, func(t *testing.T) {
			r := &recordingRunner{out: []byte("  ProductName: test\n\n")}
			start := time.Now()
			label, text, err := PlatformRelease(context.Background(), r, tc.goos)
			after := time.Now()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if label != tc.wantLabel {
				t.Fatalf("expected label %q, got %q", tc.wantLabel, label)
			}
			if text != "ProductName: test" {
				t.Fatalf("expected trimmed output, got %q", text)
			}
			if got := strings.Join(append([]string{r.name}, r.args...), " "); got != tc.wantCmd {
				t.Fatalf("expected command %q, got %q", tc.wantCmd, got)
			}
			if r.deadline.IsZero() ||
				r.deadline.Before(start.Add(PlatformReleaseTimeout)) ||
				r.deadline.After(after.Add(PlatformReleaseTimeout)) {
				t.Fatalf("expected a deadline %s after the call, got %v (call window %v..%v)", PlatformReleaseTimeout, r.deadline, start, after)
			}
		})
	}
}

func TestPlatformRelease_Unsupported(t *testing.T) {
	r := &recordingRunner{}
	_, _, err := PlatformRelease(context.Background(), r, "plan9")
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
	if r.name != "" {
		t.Fatalf("expected no command to run, ran %q", r.name)
	}
}

func TestPlatformRelease_Failures(t *testing.T) {
	cases := map[string]*recordingRunner{
		"runner error": {err: errors.New("exit status 1")},
		"empty output": {out: []byte(" \n")},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := PlatformRelease(context.Background(), r, "linux"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestExecRunner_KilledOnTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := ExecRunner{}.Run(ctx, "sh", "-c", "sleep 5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("runner did not stop promptly: %s", elapsed)
	}
}

func TestExecRunner_Output(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Fatalf("unexpected output %q", out)
	}

	_, err = ExecRunner{}.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	if err == nil || !strings.Contains(err.Error(), "exit 3") || !strings.Contains(err.Error(), "oops") {
		t.Fatalf("expected exit error with stderr, got %v", err)
	}
}
