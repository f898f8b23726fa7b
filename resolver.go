package dnserver

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// Resolver is an interface to resolve DNS queries.
type Resolver interface {
	Resolve(*dns.Msg, ClientInfo) (*dns.Msg, error)
	fmt.Stringer
}

// ResolverSpec describes how the resolver of a DNS server is built. Exactly
// one of the implementations below is passed to NewDNSServer; the choice is
// made once at construction time.
type ResolverSpec interface {
	build(serial uint32) (Resolver, *Shared[[]*Record], error)
}

// LocalRecords answers from an in-memory record store, optionally falling
// back to upstream servers when the store has no answer.
type LocalRecords struct {
	Zones []Zone

	// Comma-separated upstream addresses as "host[:port]". Leave empty to
	// answer from local records only.
	Upstream string
}

func (s LocalRecords) build(serial uint32) (Resolver, *Shared[[]*Record], error) {
	records := make([]*Record, 0, len(s.Zones))
	for _, zone := range s.Zones {
		r, err := NewRecord(zone, serial)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, r)
	}
	store := NewShared(records)
	local := NewRecordsResolver("local", store)
	if s.Upstream == "" {
		return local, store, nil
	}
	proxies, err := parseProxies(s.Upstream)
	if err != nil {
		return nil, nil, err
	}
	return NewRoundRobin("round-robin", local, RoundRobinOptions{}, proxies...), store, nil
}

// ProxyAddresses forwards every query to upstream servers, rotating across
// them when more than one is given.
type ProxyAddresses struct {
	// Comma-separated upstream addresses as "host[:port]".
	Upstream string
}

func (s ProxyAddresses) build(uint32) (Resolver, *Shared[[]*Record], error) {
	proxies, err := parseProxies(s.Upstream)
	if err != nil {
		return nil, nil, err
	}
	if len(proxies) == 1 {
		return proxies[0], nil, nil
	}
	return NewRoundRobin("round-robin", proxies[0], RoundRobinOptions{}, proxies[1:]...), nil, nil
}

// ComposedResolver uses a preconstructed resolver as-is. Record admin
// operations are not available on servers built from it.
type ComposedResolver struct {
	Resolver Resolver
}

func (s ComposedResolver) build(uint32) (Resolver, *Shared[[]*Record], error) {
	if s.Resolver == nil {
		return nil, nil, ConfigurationError{Msg: "composed resolver is nil"}
	}
	return s.Resolver, nil, nil
}

// Builds one proxy resolver per comma-separated "host[:port]" element.
func parseProxies(upstream string) ([]Resolver, error) {
	var proxies []Resolver
	for _, addr := range strings.Split(upstream, ",") {
		p, err := NewProxyResolver(strings.TrimSpace(addr), ProxyResolverOptions{})
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, p)
	}
	return proxies, nil
}
