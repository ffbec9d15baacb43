package hostinfo

import (
	"context"
	"os"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	psnet "github.com/shirou/gopsutil/v4/net"
)

func TestExternalAddresses(t *testing.T) {
	ifaces := psnet.InterfaceStatList{
		{
			Name:  "lo",
			Flags: []string{"up", "loopback"},
			Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}, {Addr: "::1/128"}},
		},
		{
			Name:         "eth0",
			HardwareAddr: "02:42:ac:11:00:02",
			Flags:        []string{"up", "broadcast"},
			Addrs:        psnet.InterfaceAddrList{{Addr: "172.17.0.2/16"}, {Addr: "fe80::42:acff:fe11:2/64"}},
		},
		{
			Name:  "tun0",
			Flags: []string{"up", "pointtopoint"},
			Addrs: psnet.InterfaceAddrList{{Addr: "10.8.0.1"}, {Addr: "garbage"}, {Addr: "127.0.0.2/8"}},
		},
	}

	want := []Address{
		{Interface: "eth0", Address: "172.17.0.2", Family: "IPv4", MAC: "02:42:ac:11:00:02"},
		{Interface: "eth0", Address: "fe80::42:acff:fe11:2", Family: "IPv6", MAC: "02:42:ac:11:00:02"},
		{Interface: "tun0", Address: "10.8.0.1", Family: "IPv4", MAC: "00:00:00:00:00:00"},
	}
	if diff := cmp.Diff(want, externalAddresses(ifaces)); diff != "" {
		t.Fatalf("addresses mismatch (-want +got):\n%s", diff)
	}
}

func TestExternalAddresses_OnlyLoopback(t *testing.T) {
	ifaces := psnet.InterfaceStatList{{Name: "lo", Flags: []string{"loopback"}, Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}}}}
	if got := externalAddresses(ifaces); len(got) != 0 {
		t.Fatalf("expected no addresses, got %+v", got)
	}
}

func TestMemoryUsed(t *testing.T) {
	if got := (Memory{Total: 10, Free: 4}).Used(); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
	if got := (Memory{Total: 4, Free: 10}).Used(); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestOSType(t *testing.T) {
	cases := map[string]string{"linux": "Linux", "darwin": "Darwin", "windows": "Windows_NT", "plan9": "plan9"}
	for goos, want := range cases {
		if got := osType(goos); got != want {
			t.Fatalf("osType(%q) = %q, want %q", goos, got, want)
		}
	}
}

func TestSystem_LiveHost(t *testing.T) {
	ctx := context.Background()
	sys := System{}

	h, err := sys.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if h.Hostname == "" || h.Platform != runtime.GOOS || h.Arch != runtime.GOARCH {
		t.Fatalf("unexpected host %+v", h)
	}

	cpus, err := sys.CPUs(ctx)
	if err != nil || cpus.Count < 1 {
		t.Fatalf("unexpected cpus %+v err=%v", cpus, err)
	}

	m, err := sys.Memory(ctx)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if m.Total == 0 || m.Free > m.Total {
		t.Fatalf("unexpected memory %+v", m)
	}

	if sys.TempDir() != os.TempDir() {
		t.Fatalf("unexpected temp dir %q", sys.TempDir())
	}
}

func TestOSEnvironment(t *testing.T) {
	t.Setenv("HOSTINFO_TEST_VAR", "42")
	env := OSEnvironment{}
	if env.Getenv("HOSTINFO_TEST_VAR") != "42" {
		t.Fatalf("expected env var to be visible")
	}
	if env.Getpid() != os.Getpid() {
		t.Fatalf("unexpected pid")
	}
	found := false
	for _, kv := range env.Environ() {
		if kv == "HOSTINFO_TEST_VAR=42" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected HOSTINFO_TEST_VAR in Environ")
	}
}
