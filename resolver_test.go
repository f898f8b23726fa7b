package dnserver

import (
	"errors"

	"github.com/miekg/dns"
)

type TestResolver func(*dns.Msg, ClientInfo) (*dns.Msg, error)

func (r TestResolver) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	if r == nil {
		return nil, errors.New("no function defined in TestResolver")
	}
	return r(q, ci)
}

func (r TestResolver) String() string {
	return "TestResolver()"
}

// Returns a resolver answering every query with an empty NOERROR reply, the
// way a records resolver signals "not found here".
func emptyResolver() TestResolver {
	return func(q *dns.Msg, _ ClientInfo) (*dns.Msg, error) {
		a := new(dns.Msg)
		a.SetReply(q)
		return a, nil
	}
}

// Returns a resolver answering every query with a fixed A record.
func staticResolver(ip string) TestResolver {
	return func(q *dns.Msg, _ ClientInfo) (*dns.Msg, error) {
		a := new(dns.Msg)
		a.SetReply(q)
		rr, err := Zone{Host: qName(q), Type: TypeA, Answer: ip}.RR(0)
		if err != nil {
			return nil, err
		}
		a.Answer = []dns.RR{rr}
		return a, nil
	}
}
