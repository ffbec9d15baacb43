package streaminghttp

import (
	"errors"
	"fmt"

	"github.com/ggoodman/device-info-mcp/internal/jsonrpc"
)

// ErrNotBound is reported when Handle is called before Bind.
var ErrNotBound = errors.New("transport is not bound to a server")

// ProtocolDecodeError reports an inbound payload that is not a valid JSON-RPC
// message or batch. Code is the JSON-RPC error code sent back to the client.
type ProtocolDecodeError struct {
	Code jsonrpc.ErrorCode
	Err  error
}

func (e *ProtocolDecodeError) Error() string {
	return fmt.Sprintf("protocol decode error (%d): %v", e.Code, e.Err)
}

func (e *ProtocolDecodeError) Unwrap() error { return e.Err }

// TransportWriteError reports an I/O failure while writing the response.
// It ends the exchange it occurred in.
type TransportWriteError struct {
	Op  string
	Err error
}

func (e *TransportWriteError) Error() string {
	return fmt.Sprintf("transport write (%s): %v", e.Op, e.Err)
}

func (e *TransportWriteError) Unwrap() error { return e.Err }
