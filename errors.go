package dnserver

import (
	"fmt"

	"github.com/miekg/dns"
)

// ValidationError is returned when a raw zone definition doesn't have the
// expected shape. Index is the 1-based position of the offending entry in
// its source.
type ValidationError struct {
	Index int
	Msg   string
	Value interface{}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("zone %d is invalid, %s, got %v", e.Index, e.Msg, e.Value)
}

// ConfigurationError is returned when a server or resolver can't be built
// from the given arguments, before serving begins.
type ConfigurationError struct {
	Msg string
}

func (e ConfigurationError) Error() string {
	return e.Msg
}

// QueryTimeoutError is returned when an upstream query times out.
type QueryTimeoutError struct {
	query *dns.Msg
}

func (e QueryTimeoutError) Error() string {
	return fmt.Sprintf("query for '%s' timed out", qName(e.query))
}
