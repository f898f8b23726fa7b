package dnserver

import (
	"net"
	"strconv"

	"github.com/miekg/dns"
)

// ClientInfo carries information about the client making the request.
type ClientInfo struct {
	SourceIP net.IP

	// ID of the listener that received the query.
	Listener string
}

// Return the query name from a DNS query.
func qName(q *dns.Msg) string {
	if len(q.Question) == 0 {
		return ""
	}
	return q.Question[0].Name
}

// Returns the string representation of the query type.
func qType(q *dns.Msg) string {
	if len(q.Question) == 0 {
		return ""
	}
	return dns.TypeToString[q.Question[0].Qtype]
}

// Return the result code name from a DNS response.
func rCode(r *dns.Msg) string {
	if result, ok := dns.RcodeToString[r.Rcode]; ok {
		return result
	}
	return strconv.Itoa(r.Rcode)
}

// Returns a SERVFAIL answer for a query.
func servfail(q *dns.Msg) *dns.Msg {
	a := new(dns.Msg)
	a.SetRcode(q, dns.RcodeServerFailure)
	return a
}
