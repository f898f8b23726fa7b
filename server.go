package dnserver

import (
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// DefaultUpstream is the upstream server used by the command-line tool when
// none is configured.
const DefaultUpstream = "1.1.1.1"

// Port describes one listening port.
type Port struct {
	Number int

	// "udp", "tcp", or empty for both.
	Net string
}

type ServerOptions struct {
	// Address to bind, defaults to all interfaces.
	Addr string

	// Listening ports, defaults to port 53 on UDP and TCP. Port 0 picks a
	// free port, discoverable through Port() once the server is started.
	Ports []Port

	// Serial number used to complete SOA answers that don't carry their
	// own. Defaults to the Unix time at server construction.
	Serial uint32

	// Forward a copy of every query and answer to syslog.
	Syslog *SyslogOptions
}

// DNSServer serves DNS queries on UDP and TCP using a resolver built from a
// ResolverSpec. It is safe to add or replace records while the server is
// answering queries.
type DNSServer struct {
	resolver Resolver
	records  *Shared[[]*Record]
	serial   uint32
	addr     string
	ports    []Port

	mu      sync.Mutex
	servers []*dns.Server
	running bool
}

// NewDNSServer builds a server from a resolver spec. The server doesn't
// listen until Start is called.
func NewDNSServer(spec ResolverSpec, opt ServerOptions) (*DNSServer, error) {
	if spec == nil {
		spec = LocalRecords{}
	}
	serial := opt.Serial
	if serial == 0 {
		serial = uint32(time.Now().Unix())
	}
	resolver, records, err := spec.build(serial)
	if err != nil {
		return nil, err
	}
	if opt.Syslog != nil {
		resolver, err = NewSyslog("syslog", resolver, *opt.Syslog)
		if err != nil {
			return nil, err
		}
	}
	ports := opt.Ports
	if len(ports) == 0 {
		ports = []Port{{Number: DefaultDNSPort}}
	}
	for _, p := range ports {
		if p.Number < 0 || p.Number > 65535 {
			return nil, ConfigurationError{Msg: "invalid port " + strconv.Itoa(p.Number)}
		}
		switch p.Net {
		case "", "udp", "tcp":
		default:
			return nil, ConfigurationError{Msg: "unsupported protocol '" + p.Net + "'"}
		}
	}
	return &DNSServer{
		resolver: resolver,
		records:  records,
		serial:   serial,
		addr:     opt.Addr,
		ports:    ports,
	}, nil
}

// NewDNSServerFromConfig builds a server answering from the zones in the
// given config file, forwarding unmatched queries upstream.
func NewDNSServerFromConfig(path, upstream string, opt ServerOptions) (*DNSServer, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	Log.WithFields(logrus.Fields{"zones": len(config.Zones), "file": path}).Info("loaded zone records")
	return NewDNSServer(LocalRecords{Zones: config.Zones, Upstream: upstream}, opt)
}

// Start binds all listeners and begins serving. It returns once every
// listener is bound, with serving continuing in the background.
func (s *DNSServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ConfigurationError{Msg: "server already started"}
	}
	for _, port := range s.ports {
		nets := []string{"udp", "tcp"}
		if port.Net != "" {
			nets = []string{port.Net}
		}
		for _, network := range nets {
			srv, err := s.listen(network, port.Number)
			if err != nil {
				s.shutdownLocked()
				return err
			}
			s.servers = append(s.servers, srv)
			go func(srv *dns.Server, network string) {
				if err := srv.ActivateAndServe(); err != nil {
					Log.WithError(err).WithField("protocol", network).Error("listener failed")
				}
			}(srv, network)
		}
	}
	s.running = true
	return nil
}

// Binds one socket and wraps it in a DNS server ready to be activated.
func (s *DNSServer) listen(network string, port int) (*dns.Server, error) {
	addr := net.JoinHostPort(s.addr, strconv.Itoa(port))
	Log.WithFields(logrus.Fields{"protocol": network, "addr": addr}).Info("starting listener")
	srv := &dns.Server{Handler: s.handler(network)}
	switch network {
	case "udp":
		pc, err := net.ListenPacket("udp", addr)
		if err != nil {
			return nil, err
		}
		srv.PacketConn = pc
	case "tcp":
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		srv.Listener = l
	}
	return srv, nil
}

// Stop shuts down all listeners. The server can not be restarted.
func (s *DNSServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownLocked()
}

func (s *DNSServer) shutdownLocked() error {
	var gErr error
	for _, srv := range s.servers {
		if err := srv.Shutdown(); err != nil {
			gErr = err
		}
	}
	s.servers = nil
	s.running = false
	return gErr
}

// IsRunning reports whether the server has been started and not yet stopped.
func (s *DNSServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Port returns the first bound port, or 0 if the server isn't running.
// Useful with port 0 configurations where the kernel picks the port.
func (s *DNSServer) Port() int {
	ports := s.Ports()
	if len(ports) == 0 {
		return 0
	}
	return ports[0]
}

// Ports returns the bound port of every active listener.
func (s *DNSServer) Ports() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ports []int
	for _, srv := range s.servers {
		switch {
		case srv.PacketConn != nil:
			if a, ok := srv.PacketConn.LocalAddr().(*net.UDPAddr); ok {
				ports = append(ports, a.Port)
			}
		case srv.Listener != nil:
			if a, ok := srv.Listener.Addr().(*net.TCPAddr); ok {
				ports = append(ports, a.Port)
			}
		}
	}
	return ports
}

// AddRecord adds a single record to the live store. The record becomes
// visible to queries atomically, and only once fully constructed.
func (s *DNSServer) AddRecord(zone Zone) error {
	if s.records == nil {
		return ConfigurationError{Msg: "server has no local record store"}
	}
	record, err := NewRecord(zone, s.serial)
	if err != nil {
		return err
	}
	s.records.Update(func(records []*Record) []*Record {
		return append(records, record)
	})
	return nil
}

// SetRecords replaces the entire live store. All records are constructed
// before the swap, so a failed zone leaves the store untouched.
func (s *DNSServer) SetRecords(zones []Zone) error {
	if s.records == nil {
		return ConfigurationError{Msg: "server has no local record store"}
	}
	records := make([]*Record, 0, len(zones))
	for _, zone := range zones {
		record, err := NewRecord(zone, s.serial)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	s.records.Replace(records)
	return nil
}

// DNS handler forwarding all queries received on one listener to the
// server's resolver.
func (s *DNSServer) handler(protocol string) dns.HandlerFunc {
	metrics := NewListenerMetrics("listener", protocol)
	return func(w dns.ResponseWriter, req *dns.Msg) {
		ci := ClientInfo{Listener: protocol}
		switch addr := w.RemoteAddr().(type) {
		case *net.TCPAddr:
			ci.SourceIP = addr.IP
		case *net.UDPAddr:
			ci.SourceIP = addr.IP
		}

		log := logger(protocol, req, ci)
		log.Debug("received query")
		metrics.query.Add(1)

		a, err := s.resolver.Resolve(req, ci)
		if err != nil {
			metrics.err.Add("resolve", 1)
			log.WithError(err).Error("failed to resolve")
			a = servfail(req)
		}
		if a == nil {
			a = servfail(req)
		}

		// Check the response actually fits if the query was sent over UDP.
		// If not, respond with the TC flag.
		if protocol == "udp" {
			maxSize := dns.MinMsgSize
			if edns0 := req.IsEdns0(); edns0 != nil {
				maxSize = int(edns0.UDPSize())
			}
			a.Truncate(maxSize)
		}

		metrics.response.Add(rCode(a), 1)
		_ = w.WriteMsg(a)
	}
}
