package dnserver

import (
	"github.com/miekg/dns"
)

// RecordsResolver answers queries from the live record store. Queries it
// can't answer produce an empty NOERROR reply, signalling to a composing
// resolver that other resolvers may be consulted.
type RecordsResolver struct {
	id      string
	records *Shared[[]*Record]
}

var _ Resolver = &RecordsResolver{}

// NewRecordsResolver returns a resolver answering from the given store.
func NewRecordsResolver(id string, records *Shared[[]*Record]) *RecordsResolver {
	return &RecordsResolver{id: id, records: records}
}

// Resolve a query from the record store. All records matching the queried
// name and type are returned. A query matching no record but falling under
// a SOA record's zone is answered with that SOA record, marking the store
// authoritative for the name.
func (r *RecordsResolver) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	a := new(dns.Msg)
	a.SetReply(q)
	if len(q.Question) == 0 {
		return a, nil
	}
	question := q.Question[0]

	// Take a consistent snapshot, match outside the lock.
	var records []*Record
	r.records.With(func(v []*Record) { records = v })

	log := logger(r.id, q, ci)
	for _, record := range records {
		if record.Match(question) {
			a.Answer = append(a.Answer, record.RR())
		}
	}
	if len(a.Answer) > 0 {
		a.Authoritative = true
		log.WithField("answers", len(a.Answer)).Debug("answering from local records")
		return a, nil
	}

	// No direct record, so look for an SOA record of an enclosing zone
	for _, record := range records {
		if record.SubMatch(question) {
			a.Answer = append(a.Answer, record.RR())
			a.Authoritative = true
			log.Debug("answering with higher-level soa record")
			return a, nil
		}
	}

	log.Debug("no local record found")
	return a, nil
}

func (r *RecordsResolver) String() string {
	return r.id
}
