package dnserver

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/miekg/dns"
)

// RecordType is the name of a supported DNS record type.
type RecordType string

// Record types that can appear in a zone definition. SPF is kept for
// compatibility and produces a TXT resource record.
const (
	TypeA      RecordType = "A"
	TypeAAAA   RecordType = "AAAA"
	TypeCAA    RecordType = "CAA"
	TypeCNAME  RecordType = "CNAME"
	TypeDNSKEY RecordType = "DNSKEY"
	TypeMX     RecordType = "MX"
	TypeNAPTR  RecordType = "NAPTR"
	TypeNS     RecordType = "NS"
	TypePTR    RecordType = "PTR"
	TypeRRSIG  RecordType = "RRSIG"
	TypeSOA    RecordType = "SOA"
	TypeSRV    RecordType = "SRV"
	TypeTXT    RecordType = "TXT"
	TypeSPF    RecordType = "SPF"
)

// RecordTypes lists every supported record type, in the order they are
// reported in validation errors.
var RecordTypes = []RecordType{
	TypeA, TypeAAAA, TypeCAA, TypeCNAME, TypeDNSKEY, TypeMX, TypeNAPTR,
	TypeNS, TypePTR, TypeRRSIG, TypeSOA, TypeSRV, TypeTXT, TypeSPF,
}

var typeCodes = map[RecordType]uint16{
	TypeA:      dns.TypeA,
	TypeAAAA:   dns.TypeAAAA,
	TypeCAA:    dns.TypeCAA,
	TypeCNAME:  dns.TypeCNAME,
	TypeDNSKEY: dns.TypeDNSKEY,
	TypeMX:     dns.TypeMX,
	TypeNAPTR:  dns.TypeNAPTR,
	TypeNS:     dns.TypeNS,
	TypePTR:    dns.TypePTR,
	TypeRRSIG:  dns.TypeRRSIG,
	TypeSOA:    dns.TypeSOA,
	TypeSRV:    dns.TypeSRV,
	TypeTXT:    dns.TypeTXT,
	TypeSPF:    dns.TypeTXT,
}

// SOA timer defaults appended to 2-element SOA answers, and the default TTLs
// per record type.
const (
	soaRefresh = 3600
	soaRetry   = 3 * 3600
	soaExpire  = 24 * 3600
	soaMinimum = 3600

	defaultTTL   = 300
	authorityTTL = 24 * 3600

	// Maximum length of a single character-string in TXT record data.
	maxTXTChunk = 255
)

// Matches a line break and any whitespace around it.
var lineBreak = regexp.MustCompile(`\s*\r?\n\s*`)

// Zone is a validated, declarative description of one DNS record. The answer
// is either a single string or a list of strings and integers, interpreted
// according to the record type. Immutable once constructed.
type Zone struct {
	Host   string
	Type   RecordType
	Answer interface{}
}

// ZoneFromRaw validates untyped input, as produced by a config parser, and
// builds a Zone from it. The index is 1-based and only used in error
// messages.
func ZoneFromRaw(index int, data interface{}) (Zone, error) {
	m, ok := data.(map[string]interface{})
	if !ok || len(m) != 3 {
		return Zone{}, ValidationError{index, `must be a table with keys "host", "type" and "answer"`, data}
	}
	for _, key := range []string{"host", "type", "answer"} {
		if _, ok := m[key]; !ok {
			return Zone{}, ValidationError{index, `must be a table with keys "host", "type" and "answer"`, data}
		}
	}

	host, ok := m["host"].(string)
	if !ok {
		return Zone{}, ValidationError{index, `"host" must be a string`, data}
	}

	typeName, ok := m["type"].(string)
	if !ok || typeCodes[RecordType(typeName)] == 0 {
		names := make([]string, len(RecordTypes))
		for i, t := range RecordTypes {
			names[i] = string(t)
		}
		return Zone{}, ValidationError{index, fmt.Sprintf(`"type" must be one of %s`, strings.Join(names, ", ")), data}
	}

	answer := m["answer"]
	switch a := answer.(type) {
	case string:
		answer = lineBreak.ReplaceAllString(a, "")
	case []interface{}:
		for _, v := range a {
			if !isStringOrInt(v) {
				return Zone{}, ValidationError{index, `"answer" must be a string or list of strings and ints`, data}
			}
		}
	default:
		return Zone{}, ValidationError{index, `"answer" must be a string or list of strings and ints`, data}
	}

	return Zone{Host: host, Type: RecordType(typeName), Answer: answer}, nil
}

// RR builds the resource record described by the zone. The serial is used to
// complete 2-element SOA answers; it has no effect on other types.
func (z Zone) RR(serial uint32) (dns.RR, error) {
	rtype := typeCodes[z.Type]
	if rtype == 0 {
		return nil, fmt.Errorf("unsupported record type '%s' for '%s'", z.Type, z.Host)
	}

	var args []interface{}
	switch a := z.Answer.(type) {
	case string:
		if rtype == dns.TypeTXT {
			for _, chunk := range chunkString(a, maxTXTChunk) {
				args = append(args, chunk)
			}
		} else {
			args = []interface{}{a}
		}
	case []interface{}:
		args = a
		if rtype == dns.TypeSOA && len(a) == 2 {
			// Add sensible times to SOA
			args = append(args[:2:2], serial, soaRefresh, soaRetry, soaExpire, soaMinimum)
		}
	default:
		return nil, fmt.Errorf("invalid answer for '%s': %v", z.Host, z.Answer)
	}

	ttl := uint32(defaultTTL)
	if rtype == dns.TypeNS || rtype == dns.TypeSOA {
		ttl = authorityTTL
	}
	hdr := dns.RR_Header{
		Name:   dns.Fqdn(z.Host),
		Rrtype: rtype,
		Class:  dns.ClassINET,
		Ttl:    ttl,
	}

	rr, err := buildRData(z.Type, hdr, args)
	if err != nil {
		return nil, fmt.Errorf("invalid %s answer for '%s': %v", z.Type, z.Host, err)
	}
	return rr, nil
}

// Builds the typed RDATA from positional answer values. The argument layout
// per type follows the common zone-file field order.
func buildRData(t RecordType, hdr dns.RR_Header, args []interface{}) (dns.RR, error) {
	p := rdataParser{args: args}
	switch t {
	case TypeA:
		ip := net.ParseIP(p.string())
		if err := p.done(); err != nil {
			return nil, err
		}
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("'%v' is not an IPv4 address", args[0])
		}
		return &dns.A{Hdr: hdr, A: ip.To4()}, nil
	case TypeAAAA:
		ip := net.ParseIP(p.string())
		if err := p.done(); err != nil {
			return nil, err
		}
		if ip == nil || ip.To4() != nil {
			return nil, fmt.Errorf("'%v' is not an IPv6 address", args[0])
		}
		return &dns.AAAA{Hdr: hdr, AAAA: ip}, nil
	case TypeCAA:
		rr := &dns.CAA{Hdr: hdr, Flag: p.uint8(), Tag: p.string(), Value: p.string()}
		return rr, p.done()
	case TypeCNAME:
		rr := &dns.CNAME{Hdr: hdr, Target: dns.Fqdn(p.string())}
		return rr, p.done()
	case TypeDNSKEY:
		rr := &dns.DNSKEY{Hdr: hdr, Flags: p.uint16(), Protocol: p.uint8(), Algorithm: p.uint8(), PublicKey: p.string()}
		return rr, p.done()
	case TypeMX:
		rr := &dns.MX{Hdr: hdr, Mx: dns.Fqdn(p.string()), Preference: 10}
		if p.more() {
			rr.Preference = p.uint16()
		}
		return rr, p.done()
	case TypeNAPTR:
		rr := &dns.NAPTR{
			Hdr:         hdr,
			Order:       p.uint16(),
			Preference:  p.uint16(),
			Flags:       p.string(),
			Service:     p.string(),
			Regexp:      p.string(),
			Replacement: dns.Fqdn(p.string()),
		}
		return rr, p.done()
	case TypeNS:
		rr := &dns.NS{Hdr: hdr, Ns: dns.Fqdn(p.string())}
		return rr, p.done()
	case TypePTR:
		rr := &dns.PTR{Hdr: hdr, Ptr: dns.Fqdn(p.string())}
		return rr, p.done()
	case TypeRRSIG:
		rr := &dns.RRSIG{
			Hdr:         hdr,
			TypeCovered: p.rrType(),
			Algorithm:   p.uint8(),
			Labels:      p.uint8(),
			OrigTtl:     p.uint32(),
			Expiration:  p.uint32(),
			Inception:   p.uint32(),
			KeyTag:      p.uint16(),
			SignerName:  dns.Fqdn(p.string()),
			Signature:   p.string(),
		}
		return rr, p.done()
	case TypeSOA:
		rr := &dns.SOA{
			Hdr:     hdr,
			Ns:      dns.Fqdn(p.string()),
			Mbox:    dns.Fqdn(p.string()),
			Serial:  p.uint32(),
			Refresh: p.uint32(),
			Retry:   p.uint32(),
			Expire:  p.uint32(),
			Minttl:  p.uint32(),
		}
		return rr, p.done()
	case TypeSRV:
		rr := &dns.SRV{Hdr: hdr, Priority: p.uint16(), Weight: p.uint16(), Port: p.uint16(), Target: dns.Fqdn(p.string())}
		return rr, p.done()
	case TypeTXT, TypeSPF:
		var txt []string
		for p.more() {
			txt = append(txt, p.string())
		}
		rr := &dns.TXT{Hdr: hdr, Txt: txt}
		return rr, p.done()
	}
	return nil, fmt.Errorf("unsupported record type '%s'", t)
}

// Splits s into chunks of at most n bytes, preserving content and order.
func chunkString(s string, n int) []string {
	var chunks []string
	for len(s) > n {
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return append(chunks, s)
}

func isStringOrInt(v interface{}) bool {
	switch n := v.(type) {
	case string, int, int64, uint, uint64:
		return true
	case float64: // JSON numbers
		return n == float64(int64(n))
	}
	return false
}

// rdataParser consumes positional answer values, converting them to the
// field types of the resource record being built. The first conversion
// failure is sticky and reported by done().
type rdataParser struct {
	args []interface{}
	pos  int
	err  error
}

func (p *rdataParser) more() bool {
	return p.err == nil && p.pos < len(p.args)
}

func (p *rdataParser) next() interface{} {
	if p.err != nil {
		return nil
	}
	if p.pos >= len(p.args) {
		p.err = fmt.Errorf("not enough values, have %d", len(p.args))
		return nil
	}
	v := p.args[p.pos]
	p.pos++
	return v
}

func (p *rdataParser) done() error {
	if p.err != nil {
		return p.err
	}
	if p.pos != len(p.args) {
		return fmt.Errorf("too many values, have %d want %d", len(p.args), p.pos)
	}
	return nil
}

func (p *rdataParser) string() string {
	v := p.next()
	s, ok := v.(string)
	if !ok && p.err == nil {
		p.err = fmt.Errorf("value %d must be a string, got %v", p.pos, v)
	}
	return s
}

func (p *rdataParser) uint(max uint64) uint64 {
	v := p.next()
	var n uint64
	var ok bool
	switch i := v.(type) {
	case int:
		n, ok = uint64(i), i >= 0
	case int64:
		n, ok = uint64(i), i >= 0
	case uint:
		n, ok = uint64(i), true
	case uint32:
		n, ok = uint64(i), true
	case uint64:
		n, ok = i, true
	case float64:
		n, ok = uint64(i), i >= 0 && i == float64(int64(i))
	}
	if p.err == nil && (!ok || n > max) {
		p.err = fmt.Errorf("value %d must be an integer between 0 and %d, got %v", p.pos, max, v)
	}
	return n
}

func (p *rdataParser) uint8() uint8   { return uint8(p.uint(1<<8 - 1)) }
func (p *rdataParser) uint16() uint16 { return uint16(p.uint(1<<16 - 1)) }
func (p *rdataParser) uint32() uint32 { return uint32(p.uint(1<<32 - 1)) }

// A type-covered value for RRSIG, given as a type name or numeric code.
func (p *rdataParser) rrType() uint16 {
	if p.err == nil && p.pos < len(p.args) {
		if name, ok := p.args[p.pos].(string); ok {
			t, ok := dns.StringToType[name]
			if !ok && p.err == nil {
				p.err = fmt.Errorf("unknown type '%s' in value %d", name, p.pos+1)
			}
			p.pos++
			return t
		}
	}
	return p.uint16()
}
