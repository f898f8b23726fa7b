package dnserver

import (
	"expvar"
	"fmt"
)

// ListenerMetrics holds expvar counters for one listener.
type ListenerMetrics struct {
	// Number of queries received.
	query *expvar.Int

	// Responses by rcode.
	response *expvar.Map

	// Errors by reason.
	err *expvar.Map
}

func NewListenerMetrics(base, id string) *ListenerMetrics {
	return &ListenerMetrics{
		query:    getVarInt(base, id, "query"),
		response: getVarMap(base, id, "response"),
		err:      getVarMap(base, id, "error"),
	}
}

// Get an *expvar.Int with the given path.
func getVarInt(base, id, name string) *expvar.Int {
	fullname := fmt.Sprintf("dnserver.%s.%s.%s", base, id, name)
	if v := expvar.Get(fullname); v != nil {
		return v.(*expvar.Int)
	}
	return expvar.NewInt(fullname)
}

// Get an *expvar.Map with the given path.
func getVarMap(base, id, name string) *expvar.Map {
	fullname := fmt.Sprintf("dnserver.%s.%s.%s", base, id, name)
	if v := expvar.Get(fullname); v != nil {
		return v.(*expvar.Map)
	}
	return expvar.NewMap(fullname)
}
