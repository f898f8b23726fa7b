package dnserver

import (
	"fmt"
	"strings"
	"sync"

	"github.com/miekg/dns"
)

// RoundRobin composes a preferred resolver, typically one answering from
// local records, with a group of proxy resolvers that receive equal amounts
// of the queries the preferred resolver has no answer for.
type RoundRobin struct {
	id      string
	local   Resolver
	proxies []Resolver
	opt     RoundRobinOptions
	mu      sync.Mutex
	current int
}

var _ Resolver = &RoundRobin{}

type RoundRobinOptions struct {
	// FailoverOnError retries a failed proxy query on the remaining proxies
	// in rotation order. The default is to fail fast, keeping per-query
	// latency bounded to a single upstream round-trip.
	FailoverOnError bool
}

// NewRoundRobin returns a new instance of a round-robin resolver group. The
// local resolver is consulted first on every query; the proxies take turns
// on queries it can't answer.
func NewRoundRobin(id string, local Resolver, opt RoundRobinOptions, proxies ...Resolver) *RoundRobin {
	return &RoundRobin{id: id, local: local, opt: opt, proxies: proxies}
}

// Resolve a query, preferring the local resolver and rotating across the
// proxies otherwise. An answer with records (including an authoritative SOA
// for an unknown name) is terminal; the proxies are only consulted when the
// local resolver has nothing to say about the queried name.
func (r *RoundRobin) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	a, err := r.local.Resolve(q, ci)
	if err == nil && hasAnswer(a) {
		return a, nil
	}
	if len(r.proxies) == 0 {
		return a, err
	}

	attempts := 1
	if r.opt.FailoverOnError {
		attempts = len(r.proxies)
	}
	var gErr error
	for i := 0; i < attempts; i++ {
		proxy := r.next()
		a, err := proxy.Resolve(q, ci)
		if err == nil {
			return a, nil
		}
		logger(r.id, q, ci).WithError(err).Debug("proxy query failed")
		gErr = err
	}
	return nil, gErr
}

// Thread-safe method to pick the next proxy. The cursor advances on every
// dispatch, regardless of the outcome.
func (r *RoundRobin) next() Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	proxy := r.proxies[r.current]
	r.current = (r.current + 1) % len(r.proxies)
	return proxy
}

func (r *RoundRobin) String() string {
	s := []string{r.local.String()}
	for _, proxy := range r.proxies {
		s = append(s, proxy.String())
	}
	return fmt.Sprintf("RoundRobin(%s)", strings.Join(s, ";"))
}

func hasAnswer(a *dns.Msg) bool {
	return a != nil && a.Rcode == dns.RcodeSuccess && len(a.Answer) > 0
}
