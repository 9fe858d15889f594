// Package conn holds the small piece of per-connection state the command
// layer reads and mutates: a monotonic ID plus the HELLO/CLIENT metadata
// (lib name, lib version, connection name).
package conn

import "sync/atomic"

// Context is one TCP connection's identity and CLIENT-settable metadata.
type Context struct {
	ID             int64
	LibName        string
	LibVersion     string
	ConnectionName string
}

// counter is the process-wide connection id counter; it resets on process
// restart, which is fine since connection ids only need to be unique for
// the life of the process.
var counter int64

// New allocates a fresh Context with the next monotonic connection ID.
func New() *Context {
	return &Context{ID: atomic.AddInt64(&counter, 1)}
}
