package dnserver

import (
	"errors"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinRotation(t *testing.T) {
	// Build 2 proxies that count the number of invocations
	var c1, c2 int
	p1 := TestResolver(func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
		c1++
		return staticResolver("1.1.1.1")(q, ci)
	})
	p2 := TestResolver(func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
		c2++
		return staticResolver("2.2.2.2")(q, ci)
	})

	g := NewRoundRobin("test-rr", emptyResolver(), RoundRobinOptions{}, p1, p2)
	q := new(dns.Msg)
	q.SetQuestion("b.test.", dns.TypeA)

	// Send 10 queries the local resolver has no answer for
	for i := 0; i < 10; i++ {
		_, err := g.Resolve(q, ClientInfo{})
		require.NoError(t, err)
	}

	// Each of the proxies should have been used 5 times
	require.Equal(t, 5, c1)
	require.Equal(t, 5, c2)
}

func TestRoundRobinLocalFirst(t *testing.T) {
	var proxied int
	proxy := TestResolver(func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
		proxied++
		return staticResolver("2.2.2.2")(q, ci)
	})
	local := NewRecordsResolver("local", testStore(t,
		Zone{Host: "a.test", Type: TypeA, Answer: "1.2.3.4"},
	))
	g := NewRoundRobin("test-rr", local, RoundRobinOptions{}, proxy, proxy)

	// A locally-answered query never reaches a proxy
	q := new(dns.Msg)
	q.SetQuestion("a.test.", dns.TypeA)
	a, err := g.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Len(t, a.Answer, 1)
	require.Equal(t, "1.2.3.4", a.Answer[0].(*dns.A).A.String())
	require.Equal(t, 0, proxied)

	// An unknown name falls through to a proxy
	q = new(dns.Msg)
	q.SetQuestion("b.test.", dns.TypeA)
	a, err = g.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Len(t, a.Answer, 1)
	require.Equal(t, "2.2.2.2", a.Answer[0].(*dns.A).A.String())
	require.Equal(t, 1, proxied)
}

func TestRoundRobinAuthoritativeSOA(t *testing.T) {
	var proxied int
	proxy := TestResolver(func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
		proxied++
		return staticResolver("2.2.2.2")(q, ci)
	})
	local := NewRecordsResolver("local", testStore(t,
		Zone{Host: "a.test", Type: TypeSOA, Answer: []interface{}{"ns1.a.test", "dns.a.test"}},
	))
	g := NewRoundRobin("test-rr", local, RoundRobinOptions{}, proxy)

	// The store is authoritative for the zone, so the negative SOA answer is
	// terminal and the proxy is not consulted
	q := new(dns.Msg)
	q.SetQuestion("missing.a.test.", dns.TypeA)
	a, err := g.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Len(t, a.Answer, 1)
	require.Equal(t, dns.TypeSOA, a.Answer[0].Header().Rrtype)
	require.Equal(t, 0, proxied)
}

func TestRoundRobinFailFast(t *testing.T) {
	var c1, c2 int
	failing := TestResolver(func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
		c1++
		return nil, errors.New("unreachable")
	})
	working := TestResolver(func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
		c2++
		return staticResolver("2.2.2.2")(q, ci)
	})
	g := NewRoundRobin("test-rr", emptyResolver(), RoundRobinOptions{}, failing, working)

	q := new(dns.Msg)
	q.SetQuestion("b.test.", dns.TypeA)

	// The first query hits the failing proxy and fails fast
	_, err := g.Resolve(q, ClientInfo{})
	require.Error(t, err)
	require.Equal(t, 1, c1)
	require.Equal(t, 0, c2)

	// The cursor advanced anyway, so the next query uses the working proxy
	_, err = g.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, 1, c1)
	require.Equal(t, 1, c2)
}

func TestRoundRobinFailover(t *testing.T) {
	failing := TestResolver(func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
		return nil, errors.New("unreachable")
	})
	g := NewRoundRobin("test-rr", emptyResolver(), RoundRobinOptions{FailoverOnError: true},
		failing, staticResolver("2.2.2.2"))

	// With failover enabled the same query is retried on the next proxy
	q := new(dns.Msg)
	q.SetQuestion("b.test.", dns.TypeA)
	a, err := g.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Len(t, a.Answer, 1)

	// All proxies failing surfaces the error
	g = NewRoundRobin("test-rr", emptyResolver(), RoundRobinOptions{FailoverOnError: true}, failing, failing)
	_, err = g.Resolve(q, ClientInfo{})
	require.Error(t, err)
}

func TestRoundRobinNoProxies(t *testing.T) {
	g := NewRoundRobin("test-rr", emptyResolver(), RoundRobinOptions{})
	q := new(dns.Msg)
	q.SetQuestion("b.test.", dns.TypeA)

	// Without proxies the local empty reply is returned as-is
	a, err := g.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, dns.RcodeSuccess, a.Rcode)
	require.Empty(t, a.Answer)
}
