package dnserver

import (
	"strings"

	"github.com/miekg/dns"
)

// Record is the resolved, queryable form of a zone. It holds the fully-built
// resource record and only exposes what the resolvers need; it is never
// mutated after construction.
type Record struct {
	rr dns.RR
}

// NewRecord builds a record from a zone definition. The serial is used to
// complete SOA answers that don't carry their own timers.
func NewRecord(zone Zone, serial uint32) (*Record, error) {
	rr, err := zone.RR(serial)
	if err != nil {
		return nil, err
	}
	return &Record{rr: rr}, nil
}

// RecordFromRR wraps an already-built resource record.
func RecordFromRR(rr dns.RR) *Record {
	return &Record{rr: rr}
}

// RR returns the resource record, ready to be added to an answer.
func (r *Record) RR() dns.RR {
	return r.rr
}

// Name returns the fully-qualified record name.
func (r *Record) Name() string {
	return r.rr.Header().Name
}

// Type returns the protocol-level record type code.
func (r *Record) Type() uint16 {
	return r.rr.Header().Rrtype
}

// Match returns true when the question asks for this record's name and its
// type (or any type).
func (r *Record) Match(q dns.Question) bool {
	if !equalName(q.Name, r.rr.Header().Name) {
		return false
	}
	return q.Qtype == dns.TypeANY || q.Qtype == r.rr.Header().Rrtype
}

// SubMatch returns true for SOA records whose name is the queried name or a
// parent of it. Used to decide whether this store is authoritative for a
// name it has no record for.
func (r *Record) SubMatch(q dns.Question) bool {
	if r.rr.Header().Rrtype != dns.TypeSOA {
		return false
	}
	return dns.IsSubDomain(r.rr.Header().Name, q.Name)
}

// DNS names compare case-insensitively.
func equalName(a, b string) bool {
	return strings.EqualFold(dns.Fqdn(a), dns.Fqdn(b))
}
