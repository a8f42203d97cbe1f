package rpc

import (
	"encoding/json"
	"fmt"
)

const (
	Version = "2.0"

	MethodExpandContent = "expand_content_tool"
	MethodPageUpdated   = "page_updated"
)

const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
)

const (
	MessageUpdated       = "Content expanded and updated successfully"
	MessageUpdateFailed  = "Failed to expand content"
	MessageNotFound      = "Method not found"
	MessageInvalidParams = "Invalid parameters"
	MessageParseError    = "Parse error"
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  *Result         `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Notification is pushed to transports that can carry server-initiated messages.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// ExpandParams are the params of expand_content_tool.
type ExpandParams struct {
	Header  string `json:"header"`
	Content string `json:"content"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func resultResponse(id json.RawMessage, res *Result) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: res}
}

func errorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: err}
}

// ParseErrorResponse answers input that is not JSON, for transports that must reply.
func ParseErrorResponse() *Response {
	return errorResponse(nil, NewError(CodeParseError, MessageParseError))
}
