package ethclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrNegativeValue         = errors.New("value must not be negative")
	ErrZeroGasLimit          = errors.New("gas limit must be positive")
	ErrMixedFeeModels        = errors.New("gas price and EIP-1559 fee caps are mutually exclusive")
	ErrMissingFees           = errors.New("either gas price or EIP-1559 fee caps must be set")
	ErrIncompleteDynamicFees = errors.New("EIP-1559 transactions need both max priority fee and max fee")
	ErrTipAboveFeeCap        = errors.New("max priority fee exceeds max fee")
	ErrInvalidChainID        = errors.New("chain id must be positive")
	ErrUnknownFeeModel       = errors.New("unknown fee model")
	ErrNilSigner             = errors.New("signer is required")
	ErrEmptyTransaction      = errors.New("raw transaction is empty")
	ErrNoBaseFee             = errors.New("fee history has no base fee")

	errZeroBlockCount = errors.New("must be positive")
)

// ValidationError reports malformed caller input. It is always returned
// before any request reaches the endpoint.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError is a failed exchange with the endpoint: connection errors,
// timeouts and cancelled contexts.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request ran past its deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// RPCError is an error answered by the endpoint. Either the response carried
// a JSON-RPC error object (Code, Message, Data) or the HTTP status was not
// 2xx (HTTPStatus, with Code left at zero).
type RPCError struct {
	Method     string
	HTTPStatus int
	Code       int
	Message    string
	Data       interface{}
}

func (e *RPCError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Method, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

// ErrorCode returns the JSON-RPC error code.
func (e *RPCError) ErrorCode() int { return e.Code }

// ErrorData returns the error data attached by the endpoint, if any.
func (e *RPCError) ErrorData() interface{} { return e.Data }

// ResponseError means the endpoint answered without an error but the result
// could not be decoded into the expected type.
type ResponseError struct {
	Method string
	Err    error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: malformed result: %v", e.Method, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// wrapCallError sorts an error returned by rpc.Client.CallContext into the
// package error types.
func wrapCallError(method string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ethereum.NotFound) {
		return err
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		msg := httpErr.Status
		if len(httpErr.Body) > 0 {
			msg = fmt.Sprintf("%s: %s", httpErr.Status, httpErr.Body)
		}
		return &RPCError{Method: method, HTTPStatus: httpErr.StatusCode, Message: msg}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		e := &RPCError{Method: method, Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			e.Data = dataErr.ErrorData()
		}
		return e
	}

	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	if errors.As(err, &typeErr) || errors.As(err, &syntaxErr) || errors.Is(err, rpc.ErrNoResult) {
		return &ResponseError{Method: method, Err: err}
	}

	return &TransportError{Method: method, Err: err}
}
