// Package devicetools implements the device information tools and registers
// them into an mcpservice.Registry.
//
// None of the tools accept parameters. Each produces a single text block built
// from hostinfo collaborators supplied through Deps, so tests can substitute
// fixed host facts.
package devicetools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/ggoodman/device-info-mcp/hostinfo"
	"github.com/ggoodman/device-info-mcp/mcp"
	"github.com/ggoodman/device-info-mcp/mcpservice"
)

// Tool names.
const (
	DeviceInfo  = "get_device_info"
	NetworkInfo = "get_network_info"
	SystemUsage = "get_system_usage"
	ShellInfo   = "get_shell_info"
)

// ServerInfo identifies the server in initialize responses.
var ServerInfo = mcp.ImplementationInfo{Name: "device-info", Version: "1.0.0"}

// Summary is the short, human facing blurb for a tool.
type Summary struct {
	Name    string
	Summary string
}

// Summaries returns the banner summaries in registration order.
func Summaries() []Summary {
	return []Summary{
		{Name: DeviceInfo, Summary: "OS, CPU, memory, hostname"},
		{Name: NetworkInfo, Summary: "Network interfaces and IPs"},
		{Name: SystemUsage, Summary: "CPU load and memory usage"},
		{Name: ShellInfo, Summary: "Shell and environment details"},
	}
}

// Deps are the collaborators the tools read from.
type Deps struct {
	Provider hostinfo.Provider
	Env      hostinfo.Environment
	Runner   hostinfo.Runner
	// GOOS selects the platform version command. Defaults to runtime.GOOS.
	GOOS string
	// GoVersion is reported by get_device_info. Defaults to runtime.Version().
	GoVersion string
	Logger    *slog.Logger
}

// SystemDeps returns Deps backed by the running machine.
func SystemDeps() Deps {
	return Deps{
		Provider: hostinfo.System{},
		Env:      hostinfo.OSEnvironment{},
		Runner:   hostinfo.ExecRunner{},
	}
}

func (d Deps) withDefaults() (Deps, error) {
	if d.Provider == nil {
		return d, errors.New("devicetools: Provider is required")
	}
	if d.Env == nil {
		return d, errors.New("devicetools: Env is required")
	}
	if d.Runner == nil {
		return d, errors.New("devicetools: Runner is required")
	}
	if d.GOOS == "" {
		d.GOOS = runtime.GOOS
	}
	if d.GoVersion == "" {
		d.GoVersion = runtime.Version()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return d, nil
}

type noArgs struct{}

// Register adds the four device tools to reg in their canonical order.
func Register(reg *mcpservice.Registry, deps Deps) error {
	d, err := deps.withDefaults()
	if err != nil {
		return err
	}
	tools := []mcpservice.StaticTool{
		mcpservice.NewTool[noArgs](DeviceInfo, d.deviceInfo,
			mcpservice.WithToolDescription("Get basic info about the device running this server (OS, architecture, hostname, etc.)")),
		mcpservice.NewTool[noArgs](NetworkInfo, d.networkInfo,
			mcpservice.WithToolDescription("Get network interface info (names, IPs, MACs)")),
		mcpservice.NewTool[noArgs](SystemUsage, d.systemUsage,
			mcpservice.WithToolDescription("Get current CPU load averages and memory usage")),
		mcpservice.NewTool[noArgs](ShellInfo, d.shellInfo,
			mcpservice.WithToolDescription("Get shell environment info (shell, terminal, PATH summary, env vars count)")),
	}
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// NewServerFactory returns a factory producing a fresh server, with its own
// registry holding the device tools, on every call.
func NewServerFactory(deps Deps) mcpservice.ServerFactory {
	return func(ctx context.Context) (*mcpservice.Server, error) {
		reg := mcpservice.NewRegistry()
		if err := Register(reg, deps); err != nil {
			return nil, err
		}
		return mcpservice.NewServer(
			mcpservice.WithServerInfo(ServerInfo),
			mcpservice.WithTools(reg),
		), nil
	}
}

func (d Deps) deviceInfo(ctx context.Context, w mcpservice.ToolResponseWriter, _ *mcpservice.ToolRequest[noArgs]) error {
	h, err := d.Provider.Host(ctx)
	if err != nil {
		return err
	}
	cpus, err := d.Provider.CPUs(ctx)
	if err != nil {
		return err
	}
	m, err := d.Provider.Memory(ctx)
	if err != nil {
		return err
	}
	model := cpus.Model
	if model == "" {
		model = "unknown"
	}
	username, err := d.Provider.Username()
	if err != nil {
		username = "unknown"
	}
	home, err := d.Provider.HomeDir()
	if err != nil {
		home = "unknown"
	}

	lines := []string{
		"Hostname: " + h.Hostname,
		"Platform: " + h.Platform,
		fmt.Sprintf("OS: %s %s", h.OSType, h.OSRelease),
		"Architecture: " + h.Arch,
		fmt.Sprintf("CPUs: %dx %s", cpus.Count, model),
		fmt.Sprintf("Total Memory: %s GB", gigabytes(m.Total)),
		fmt.Sprintf("Free Memory: %s GB", gigabytes(m.Free)),
		"Uptime: " + FormatUptime(h.Uptime),
		"Go: " + d.GoVersion,
		"User: " + username,
		"Home Dir: " + home,
		"Temp Dir: " + d.Provider.TempDir(),
	}
	return w.AppendText(strings.Join(lines, "\n"))
}

func (d Deps) networkInfo(ctx context.Context, w mcpservice.ToolResponseWriter, _ *mcpservice.ToolRequest[noArgs]) error {
	addrs, err := d.Provider.Addresses(ctx)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return w.AppendText("No external network interfaces found.")
	}
	lines := make([]string, 0, len(addrs))
	for _, a := range addrs {
		lines = append(lines, fmt.Sprintf("%s: %s (%s, MAC: %s)", a.Interface, a.Address, a.Family, a.MAC))
	}
	return w.AppendText(strings.Join(lines, "\n"))
}

func (d Deps) systemUsage(ctx context.Context, w mcpservice.ToolResponseWriter, _ *mcpservice.ToolRequest[noArgs]) error {
	l, err := d.Provider.Load(ctx)
	if err != nil {
		return err
	}
	m, err := d.Provider.Memory(ctx)
	if err != nil {
		return err
	}
	used := m.Used()
	var pct float64
	if m.Total > 0 {
		pct = float64(used) / float64(m.Total) * 100
	}

	lines := []string{
		fmt.Sprintf("Load Average (1m / 5m / 15m): %.2f / %.2f / %.2f", l.Load1, l.Load5, l.Load15),
		fmt.Sprintf("Memory: %s GB / %s GB (%.1f%% used)", gigabytes(used), gigabytes(m.Total), pct),
		fmt.Sprintf("Free Memory: %s GB", gigabytes(m.Free)),
	}
	return w.AppendText(strings.Join(lines, "\n"))
}

func (d Deps) shellInfo(ctx context.Context, w mcpservice.ToolResponseWriter, _ *mcpservice.ToolRequest[noArgs]) error {
	shell := d.Env.Getenv("SHELL")
	if shell == "" {
		shell = "unknown"
	}
	terminal := d.Env.Getenv("TERM_PROGRAM")
	if terminal == "" {
		terminal = d.Env.Getenv("TERM")
	}
	if terminal == "" {
		terminal = "unknown"
	}
	cwd, err := d.Env.Getwd()
	if err != nil {
		cwd = "unknown"
	}

	lines := []string{
		"Shell: " + shell,
		"Terminal: " + terminal,
		fmt.Sprintf("PATH entries: %d", len(strings.Split(d.Env.Getenv("PATH"), string(os.PathListSeparator)))),
		fmt.Sprintf("Environment variables: %d", len(d.Env.Environ())),
		"Current directory: " + cwd,
		fmt.Sprintf("PID: %d", d.Env.Getpid()),
	}

	label, release, err := hostinfo.PlatformRelease(ctx, d.Runner, d.GOOS)
	if err != nil {
		d.Logger.DebugContext(ctx, "tool.shell_info.platform_release.skip", slog.String("goos", d.GOOS), slog.String("err", err.Error()))
	} else {
		lines = append(lines, "", label, release)
	}
	return w.AppendText(strings.Join(lines, "\n"))
}

// FormatUptime renders d as "[Nd ][Nh ]Nm". Days and hours appear only when
// non-zero; minutes are always present.
func FormatUptime(d time.Duration) string {
	secs := int64(d.Seconds())
	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", mins))
	return strings.Join(parts, " ")
}

func gigabytes(b uint64) string {
	return fmt.Sprintf("%.1f", float64(b)/(1<<30))
}
