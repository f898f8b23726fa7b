package dnserver

import (
	"fmt"
	"strings"

	syslog "github.com/RackSec/srslog"
	"github.com/miekg/dns"
)

// Syslog forwards every query unmodified to another resolver and sends a
// line per query and answer to a syslog server.
type Syslog struct {
	id       string
	writer   *syslog.Writer
	resolver Resolver
}

var _ Resolver = &Syslog{}

type SyslogOptions struct {
	// "udp", "tcp", "unix". Defaults to "udp"
	Network string

	// Remote address, defaults to the local syslog server
	Address string

	// Priority value as per https://pkg.go.dev/log/syslog#Priority
	Priority int

	// Syslog tag
	Tag string
}

// NewSyslog returns a query-logging wrapper around a resolver.
func NewSyslog(id string, resolver Resolver, opt SyslogOptions) (*Syslog, error) {
	writer, err := syslog.Dial(opt.Network, opt.Address, syslog.Priority(opt.Priority), opt.Tag)
	if err != nil {
		return nil, err
	}
	return &Syslog{id: id, writer: writer, resolver: resolver}, nil
}

// Resolve passes a DNS query through unmodified. Query details are sent via syslog.
func (r *Syslog) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	r.send(fmt.Sprintf("id=%s qid=%d type=query client=%s qtype=%s qname=%s", r.id, q.Id, ci.SourceIP, qType(q), qName(q)), q, ci)

	a, err := r.resolver.Resolve(q, ci)
	if err != nil || a == nil {
		return a, err
	}
	if a.Rcode != dns.RcodeSuccess {
		r.send(fmt.Sprintf("id=%s qid=%d type=answer qname=%s rcode=%s", r.id, q.Id, qName(q), rCode(a)), q, ci)
		return a, err
	}
	for i, rr := range a.Answer {
		record := strings.ReplaceAll(rr.String(), "\t", " ")
		r.send(fmt.Sprintf("id=%s qid=%d type=answer answer-num=%d/%d qname=%s answer=%q", r.id, q.Id, i+1, len(a.Answer), qName(q), record), q, ci)
	}
	return a, err
}

func (r *Syslog) send(msg string, q *dns.Msg, ci ClientInfo) {
	if _, err := r.writer.Write([]byte(msg)); err != nil {
		logger(r.id, q, ci).WithError(err).Error("failed to send syslog")
	}
}

func (r *Syslog) String() string {
	return r.id
}
