package dnserver

import (
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// Starts a DNS server on a random local port and returns its address.
func startTestDNS(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &dns.Server{PacketConn: pc, Handler: handler}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

// Handler answering every query with one A record.
func staticHandler(ip string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, req *dns.Msg) {
		a := new(dns.Msg)
		a.SetReply(req)
		rr, _ := dns.NewRR(qName(req) + " 300 IN A " + ip)
		a.Answer = []dns.RR{rr}
		_ = w.WriteMsg(a)
	}
}

func TestProxyResolver(t *testing.T) {
	addr := startTestDNS(t, staticHandler("7.7.7.7"))

	p, err := NewProxyResolver(addr, ProxyResolverOptions{})
	require.NoError(t, err)

	q := new(dns.Msg)
	q.SetQuestion("test.com.", dns.TypeA)
	a, err := p.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Len(t, a.Answer, 1)
	require.Equal(t, "7.7.7.7", a.Answer[0].(*dns.A).A.String())
}

func TestProxyResolverTimeout(t *testing.T) {
	// A socket nobody reads from, so queries just time out
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	p, err := NewProxyResolver(pc.LocalAddr().String(), ProxyResolverOptions{Timeout: 100 * time.Millisecond})
	require.NoError(t, err)

	q := new(dns.Msg)
	q.SetQuestion("test.com.", dns.TypeA)
	_, err = p.Resolve(q, ClientInfo{})
	var terr QueryTimeoutError
	require.ErrorAs(t, err, &terr)
}

func TestUpstreamAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.1.1.1", "1.1.1.1:53"},
		{"1.1.1.1:5353", "1.1.1.1:5353"},
		{"dns.example.com", "dns.example.com:53"},
		{"::1", "[::1]:53"},
	}
	for _, test := range tests {
		addr, err := upstreamAddr(test.in)
		require.NoError(t, err)
		require.Equal(t, test.want, addr)
	}

	for _, in := range []string{"", "1.1.1.1:nope", "1.1.1.1:0", "1.1.1.1:99999"} {
		_, err := upstreamAddr(in)
		var cerr ConfigurationError
		require.ErrorAs(t, err, &cerr, "address %q", in)
	}
}
