package jsonrpc

import "fmt"

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal JSON-RPC error.
	ErrorCodeInternalError ErrorCode = -32603
)

// DecodeError reports a payload that could not be decoded into JSON-RPC
// messages. Code is ErrorCodeParseError for malformed JSON and
// ErrorCodeInvalidRequest for well-formed JSON that is not a valid envelope.
type DecodeError struct {
	Code ErrorCode
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jsonrpc decode (%d): %v", e.Code, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
