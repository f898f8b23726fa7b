/*
Package dnserver implements a small embeddable DNS server that answers
queries from a mutable, in-memory set of zone records and forwards
everything else to upstream servers. It is meant for test harnesses, local
development and lightweight service discovery, not as a full authoritative
nameserver.

Records

Zone records are validated declarative descriptions of one DNS answer.
They can be loaded from a TOML, YAML or JSON file, or registered
programmatically while the server is running. The live record set is held
behind a lock and can be appended to or replaced wholesale at any time.

Resolvers

Resolvers answer queries. RecordsResolver serves the local record store,
ProxyResolver forwards to one upstream server, and RoundRobin composes a
local resolver with a rotating group of proxies: local records always win,
and queries the store knows nothing about are spread across the upstreams.

Server

DNSServer ties a resolver to UDP and TCP listeners and exposes the
administrative operations used when embedding: adding records, replacing
the record set, and querying the bound ports.
*/
package dnserver
