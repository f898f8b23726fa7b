package dnserver

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/miekg/dns"
)

// DefaultDNSPort is used for upstream addresses given without a port.
const DefaultDNSPort = 53

const defaultProxyTimeout = 5 * time.Second

// ProxyResolver forwards queries unmodified to one upstream DNS server and
// returns whatever it answers. Failures are surfaced to the caller; retries,
// if any, are up to the composing resolver.
type ProxyResolver struct {
	addr   string
	client *dns.Client
}

var _ Resolver = &ProxyResolver{}

type ProxyResolverOptions struct {
	// "udp" or "tcp", defaults to "udp".
	Net string

	// Upstream exchange timeout, defaults to 5s.
	Timeout time.Duration
}

// NewProxyResolver returns a resolver forwarding to the upstream address
// given as "host[:port]", with port 53 assumed when absent.
func NewProxyResolver(addr string, opt ProxyResolverOptions) (*ProxyResolver, error) {
	addr, err := upstreamAddr(addr)
	if err != nil {
		return nil, err
	}
	if opt.Timeout == 0 {
		opt.Timeout = defaultProxyTimeout
	}
	client := &dns.Client{
		Net:     opt.Net,
		Timeout: opt.Timeout,
	}
	return &ProxyResolver{addr: addr, client: client}, nil
}

// Resolve a query by forwarding it upstream.
func (p *ProxyResolver) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	logger(p.String(), q, ci).Debug("proxying query")
	a, _, err := p.client.Exchange(q, p.addr)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, QueryTimeoutError{q}
		}
		return nil, err
	}
	return a, nil
}

func (p *ProxyResolver) String() string {
	return fmt.Sprintf("Proxy(%s)", p.addr)
}

// Validates a "host[:port]" upstream address and completes the default port.
func upstreamAddr(addr string) (string, error) {
	if addr == "" {
		return "", ConfigurationError{Msg: "empty upstream address"}
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// No port in the address
		return net.JoinHostPort(addr, strconv.Itoa(DefaultDNSPort)), nil
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return "", ConfigurationError{Msg: fmt.Sprintf("invalid port '%s' in upstream address '%s'", port, addr)}
	}
	return net.JoinHostPort(host, port), nil
}
