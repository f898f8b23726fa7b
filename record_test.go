package dnserver

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func question(name string, qtype uint16) dns.Question {
	return dns.Question{Name: dns.Fqdn(name), Qtype: qtype, Qclass: dns.ClassINET}
}

func TestRecordMatch(t *testing.T) {
	record, err := NewRecord(Zone{Host: "x.example.com", Type: TypeA, Answer: "1.2.3.4"}, 0)
	require.NoError(t, err)

	require.True(t, record.Match(question("x.example.com", dns.TypeA)))
	require.True(t, record.Match(question("X.Example.COM", dns.TypeA)))
	require.True(t, record.Match(question("x.example.com", dns.TypeANY)))
	require.False(t, record.Match(question("x.example.com", dns.TypeAAAA)))
	require.False(t, record.Match(question("y.example.com", dns.TypeA)))
	require.False(t, record.Match(question("sub.x.example.com", dns.TypeA)))
}

func TestRecordSubMatch(t *testing.T) {
	soa, err := NewRecord(Zone{
		Host:   "example.com",
		Type:   TypeSOA,
		Answer: []interface{}{"ns1.example.com", "dns.example.com"},
	}, 1)
	require.NoError(t, err)

	require.True(t, soa.SubMatch(question("example.com", dns.TypeA)))
	require.True(t, soa.SubMatch(question("deep.sub.example.com", dns.TypeAAAA)))
	require.False(t, soa.SubMatch(question("example.org", dns.TypeA)))
	require.False(t, soa.SubMatch(question("notexample.com", dns.TypeA)))

	// Only SOA records can answer for a whole zone
	a, err := NewRecord(Zone{Host: "example.com", Type: TypeA, Answer: "1.2.3.4"}, 0)
	require.NoError(t, err)
	require.False(t, a.SubMatch(question("sub.example.com", dns.TypeA)))
}

func TestRecordFromRR(t *testing.T) {
	rr, err := dns.NewRR("x.example.com. 300 IN A 1.2.3.4")
	require.NoError(t, err)
	record := RecordFromRR(rr)
	require.True(t, record.Match(question("x.example.com", dns.TypeA)))
	require.Equal(t, dns.TypeA, record.Type())
	require.Equal(t, "x.example.com.", record.Name())
}
