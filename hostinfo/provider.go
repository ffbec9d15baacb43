// Package hostinfo reads facts about the machine the server runs on: host
// identity, CPU, memory, load, network addresses, the process environment and
// a platform version string obtained from a short-lived subprocess.
//
// Each concern sits behind a small interface so tool bodies can be exercised
// against fixed values in tests.
package hostinfo

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/user"
	"runtime"
	"slices"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
)

// Host identifies the machine and its operating system.
type Host struct {
	Hostname  string
	Platform  string // GOOS-style identifier, e.g. "linux"
	OSType    string // kernel name, e.g. "Linux", "Darwin", "Windows_NT"
	OSRelease string // kernel release
	Arch      string
	Uptime    time.Duration
}

// CPUs summarizes the logical processors.
type CPUs struct {
	Count int
	Model string // empty when the model cannot be determined
}

// Memory reports physical memory in bytes. Free is the memory available to
// new processes without swapping.
type Memory struct {
	Total uint64
	Free  uint64
}

// Used returns Total minus Free, clamped at zero.
func (m Memory) Used() uint64 {
	if m.Free > m.Total {
		return 0
	}
	return m.Total - m.Free
}

// Load holds the 1, 5 and 15 minute load averages.
type Load struct {
	Load1, Load5, Load15 float64
}

// Address is one address bound to a network interface.
type Address struct {
	Interface string
	Address   string
	Family    string // "IPv4" or "IPv6"
	MAC       string
}

// Provider exposes host facts.
type Provider interface {
	Host(ctx context.Context) (Host, error)
	CPUs(ctx context.Context) (CPUs, error)
	Memory(ctx context.Context) (Memory, error)
	Load(ctx context.Context) (Load, error)
	// Addresses returns every non-loopback address, grouped by interface in
	// enumeration order.
	Addresses(ctx context.Context) ([]Address, error)
	Username() (string, error)
	HomeDir() (string, error)
	TempDir() string
}

// System is the Provider backed by the running machine.
type System struct{}

var _ Provider = System{}

func (System) Host(ctx context.Context) (Host, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return Host{}, fmt.Errorf("read host info: %w", err)
	}
	return Host{
		Hostname:  info.Hostname,
		Platform:  runtime.GOOS,
		OSType:    osType(runtime.GOOS),
		OSRelease: info.KernelVersion,
		Arch:      runtime.GOARCH,
		Uptime:    time.Duration(info.Uptime) * time.Second,
	}, nil
}

func (System) CPUs(ctx context.Context) (CPUs, error) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	out := CPUs{Count: n}
	// Model lookup is best effort; some virtualized hosts expose no model name.
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		out.Model = infos[0].ModelName
	}
	return out, nil
}

func (System) Memory(ctx context.Context) (Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, fmt.Errorf("read memory stats: %w", err)
	}
	return Memory{Total: vm.Total, Free: vm.Available}, nil
}

func (System) Load(ctx context.Context) (Load, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return Load{}, fmt.Errorf("read load average: %w", err)
	}
	return Load{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}, nil
}

func (System) Addresses(ctx context.Context) ([]Address, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list network interfaces: %w", err)
	}
	return externalAddresses(ifaces), nil
}

func (System) Username() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("look up current user: %w", err)
	}
	return u.Username, nil
}

func (System) HomeDir() (string, error) {
	return os.UserHomeDir()
}

func (System) TempDir() string {
	return os.TempDir()
}

const zeroMAC = "00:00:00:00:00:00"

// externalAddresses flattens interface stats into addresses, dropping
// loopback interfaces and loopback addresses.
func externalAddresses(ifaces psnet.InterfaceStatList) []Address {
	var out []Address
	for _, iface := range ifaces {
		if slices.Contains(iface.Flags, "loopback") {
			continue
		}
		mac := iface.HardwareAddr
		if mac == "" {
			mac = zeroMAC
		}
		for _, a := range iface.Addrs {
			addr, ok := parseAddr(a.Addr)
			if !ok || addr.IsLoopback() {
				continue
			}
			family := "IPv6"
			if addr.Is4() {
				family = "IPv4"
			}
			out = append(out, Address{
				Interface: iface.Name,
				Address:   addr.String(),
				Family:    family,
				MAC:       mac,
			})
		}
	}
	return out
}

// parseAddr accepts either CIDR notation or a bare address.
func parseAddr(s string) (netip.Addr, bool) {
	if p, err := netip.ParsePrefix(s); err == nil {
		return p.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return a.Unmap(), true
	}
	return netip.Addr{}, false
}

func osType(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows_NT"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	case "netbsd":
		return "NetBSD"
	case "solaris", "illumos":
		return "SunOS"
	case "aix":
		return "AIX"
	default:
		return goos
	}
}
