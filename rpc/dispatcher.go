package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"confluence-mcp/service"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

var ErrMalformed = errors.New("malformed json")

// PageUpdater performs the remote update for expand_content_tool.
type PageUpdater interface {
	UpdatePage(ctx context.Context, header, content string) bool
}

// Dispatcher routes requests to the page updater. Requests are resolved one at a
// time, whichever transport they arrive on.
type Dispatcher struct {
	pages  PageUpdater
	events *service.Events
	l      *slog.Logger
	mu     sync.Mutex
}

func NewDispatcher(pages PageUpdater, events *service.Events, l *slog.Logger) *Dispatcher {
	if l == nil {
		l = slog.Default()
	}
	return &Dispatcher{
		pages:  pages,
		events: events,
		l:      l.With("component", "dispatcher"),
	}
}

// HandleLine decodes one raw request and dispatches it. Input that is not JSON
// returns ErrMalformed and no response.
func (d *Dispatcher) HandleLine(ctx context.Context, line []byte) (*Response, error) {
	line = bytes.TrimSpace(line)
	if !sonic.Valid(line) {
		return nil, ErrMalformed
	}
	if line[0] != '{' {
		return errorResponse(nil, NewError(CodeServerError, errNotObject.Error())), nil
	}
	var raw rawRequest
	if err := sonic.Unmarshal(line, &raw); err != nil {
		return errorResponse(nil, NewError(CodeServerError, err.Error())), nil
	}
	return d.Dispatch(ctx, raw.request()), nil
}

var errNotObject = errors.New("request is not a JSON object")

// rawRequest accepts members of any type; a non-string method simply matches no method.
type rawRequest struct {
	JSONRPC any             `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  any             `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *rawRequest) request() *Request {
	version, _ := r.JSONRPC.(string)
	method, _ := r.Method.(string)
	return &Request{JSONRPC: version, ID: r.ID, Method: method, Params: r.Params}
}

// Dispatch resolves a decoded request into exactly one response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	d.mu.Lock()
	defer d.mu.Unlock()

	rid := uuid.NewString()
	l := d.l.With("rid", rid, "method", req.Method)
	l.Debug("received request", "params", string(req.Params))

	res, err := d.handle(ctx, rid, req)
	if err != nil {
		var rpcErr *Error
		if !errors.As(err, &rpcErr) {
			rpcErr = NewError(CodeServerError, err.Error())
		}
		l.Warn("request failed", "code", rpcErr.Code, "err", rpcErr.Message)
		return errorResponse(req.ID, rpcErr)
	}
	return resultResponse(req.ID, res)
}

func (d *Dispatcher) handle(ctx context.Context, rid string, req *Request) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%v", r)
		}
	}()

	switch req.Method {
	case MethodExpandContent:
		return d.expandContent(ctx, rid, req.Params)
	default:
		return nil, NewError(CodeMethodNotFound, MessageNotFound)
	}
}

func (d *Dispatcher) expandContent(ctx context.Context, rid string, raw json.RawMessage) (*Result, error) {
	var params ExpandParams
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &params); err != nil {
			return nil, err
		}
	}
	if params.Header == "" || params.Content == "" {
		return nil, NewError(CodeInvalidParams, MessageInvalidParams)
	}

	ok := d.pages.UpdatePage(ctx, params.Header, params.Content)
	d.events.PublishPageEvent(service.PageEvent{
		RequestID: rid,
		Header:    params.Header,
		Success:   ok,
	})
	if !ok {
		return &Result{Success: false, Message: MessageUpdateFailed}, nil
	}
	return &Result{Success: true, Message: MessageUpdated}, nil
}
