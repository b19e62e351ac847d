package uploadkit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"testing"
)

// staticResolver answers lookups from a fixed table.
type staticResolver struct {
	hosts map[string][]string
	calls int
}

func (r *staticResolver) LookupNetIP(_ context.Context, _, host string) ([]netip.Addr, error) {
	r.calls++
	addrs, ok := r.hosts[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	out := make([]netip.Addr, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, netip.MustParseAddr(a))
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublicOnly(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"8.8.8.8", true},
		{"2606:4700:4700::1111", true},
		{"127.0.0.1", false},
		{"127.8.9.10", false},
		{"10.0.0.5", false},
		{"172.16.0.1", false},
		{"172.31.255.255", false},
		{"172.32.0.1", true},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"0.0.0.0", false},
		{"100.64.0.1", false},
		{"224.0.0.1", false},
		{"::1", false},
		{"::", false},
		{"fd00::1", false},
		{"fe80::1", false},
		{"::ffff:127.0.0.1", false},
		{"::ffff:10.1.2.3", false},
		{"::ffff:8.8.8.8", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := PublicOnly(netip.MustParseAddr(tt.addr)); got != tt.want {
				t.Errorf("Expected PublicOnly(%s) = %v, got %v", tt.addr, tt.want, got)
			}
		})
	}
}

func TestHostGuardCheck(t *testing.T) {
	resolver := &staticResolver{hosts: map[string][]string{
		"public.test":   {"93.184.216.34"},
		"internal.test": {"10.1.2.3"},
		"mixed.test":    {"93.184.216.34", "192.168.0.10"},
		"empty.test":    {},
	}}
	g := hostGuard{resolver: resolver, allow: PublicOnly, log: discardLogger()}

	tests := []struct {
		host string
		want error
	}{
		{"public.test", nil},
		{"internal.test", ErrForbiddenHost},
		{"mixed.test", ErrForbiddenHost},
		{"empty.test", ErrFetch},
		{"unknown.test", ErrFetch},
		{"127.0.0.1", ErrForbiddenHost},
		{"8.8.8.8", nil},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			err := g.check(context.Background(), tt.host)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHostGuardLiteralSkipsResolver(t *testing.T) {
	resolver := &staticResolver{}
	g := hostGuard{resolver: resolver, allow: PublicOnly, log: discardLogger()}

	_ = g.check(context.Background(), "10.0.0.5")
	if resolver.calls != 0 {
		t.Errorf("Expected no lookups for a literal address, got %d", resolver.calls)
	}
}

func TestHostGuardControl(t *testing.T) {
	g := hostGuard{allow: PublicOnly, log: discardLogger()}

	if err := g.control("tcp4", "93.184.216.34:443", nil); err != nil {
		t.Errorf("Expected public peer to be allowed, got %v", err)
	}
	if err := g.control("tcp4", "127.0.0.1:80", nil); !errors.Is(err, errForbiddenDial) {
		t.Errorf("Expected errForbiddenDial for loopback, got %v", err)
	}
	if err := g.control("tcp6", "[fd12::1]:80", nil); !errors.Is(err, errForbiddenDial) {
		t.Errorf("Expected errForbiddenDial for unique-local, got %v", err)
	}
}
