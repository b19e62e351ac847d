package uploadkit

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"syscall"
)

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// IPFilter reports whether the fetcher may connect to addr.
type IPFilter func(addr netip.Addr) bool

// reservedPrefixes are non-routable or special-purpose ranges that the
// netip predicates do not cover.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

// PublicOnly is the default IPFilter. It refuses loopback, private
// (10/8, 172.16/12, 192.168/16, fc00::/7), link-local, multicast,
// unspecified and reserved addresses. IPv4-mapped IPv6 addresses are judged
// by their IPv4 form.
func PublicOnly(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() {
		return false
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() || addr.IsMulticast() {
		return false
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// errForbiddenDial is returned from the dialer's Control hook. It surfaces
// inside *url.Error and is translated to ErrForbiddenHost.
var errForbiddenDial = errors.New("dial to forbidden address")

type hostGuard struct {
	resolver Resolver
	allow    IPFilter
	log      *slog.Logger
}

// check resolves host and fails if any of its addresses is refused by the
// filter. A literal IP is checked without a lookup.
func (g hostGuard) check(ctx context.Context, host string) error {
	if addr, err := netip.ParseAddr(host); err == nil {
		if !g.allow(addr) {
			g.log.Warn("fetch rejected: forbidden host", "host", host)
			return forbiddenHost("fetch")
		}
		return nil
	}

	addrs, err := g.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fetchFailed("resolve", "timed out resolving image host", 0, ctxErr)
		}
		return fetchFailed("resolve", "could not resolve image host", 0, err)
	}
	if len(addrs) == 0 {
		return fetchFailed("resolve", "could not resolve image host", 0, nil)
	}
	for _, addr := range addrs {
		if !g.allow(addr) {
			g.log.Warn("fetch rejected: forbidden host", "host", host, "addr", addr.String())
			return forbiddenHost("fetch")
		}
	}
	return nil
}

// control is a net.Dialer Control hook: it runs after resolution for every
// connection, redirects included, and refuses forbidden peers.
func (g hostGuard) control(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !g.allow(addr) {
		g.log.Warn("fetch rejected: dial to forbidden address", "network", network, "addr", host)
		return errForbiddenDial
	}
	return nil
}
