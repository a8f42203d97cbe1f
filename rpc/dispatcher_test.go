package rpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"confluence-mcp/service"
)

type fakeUpdater struct {
	ok     bool
	panics bool
	calls  []ExpandParams
}

func (f *fakeUpdater) UpdatePage(ctx context.Context, header, content string) bool {
	if f.panics {
		panic("boom")
	}
	f.calls = append(f.calls, ExpandParams{Header: header, Content: content})
	return f.ok
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		ok        bool
		wantCode  int
		wantOK    bool
		wantMsg   string
		wantCalls int
	}{
		{
			name:     "unknown method",
			line:     `{"jsonrpc":"2.0","method":"tools/list","params":{}}`,
			wantCode: CodeMethodNotFound,
			wantMsg:  MessageNotFound,
		},
		{
			name:     "missing method",
			line:     `{"jsonrpc":"2.0"}`,
			wantCode: CodeMethodNotFound,
			wantMsg:  MessageNotFound,
		},
		{
			name:     "missing params",
			line:     `{"jsonrpc":"2.0","method":"expand_content_tool"}`,
			wantCode: CodeInvalidParams,
			wantMsg:  MessageInvalidParams,
		},
		{
			name:     "null params",
			line:     `{"jsonrpc":"2.0","method":"expand_content_tool","params":null}`,
			wantCode: CodeInvalidParams,
			wantMsg:  MessageInvalidParams,
		},
		{
			name:     "empty header",
			line:     `{"jsonrpc":"2.0","method":"expand_content_tool","params":{"header":"","content":"C"}}`,
			wantCode: CodeInvalidParams,
			wantMsg:  MessageInvalidParams,
		},
		{
			name:     "missing content",
			line:     `{"jsonrpc":"2.0","method":"expand_content_tool","params":{"header":"H"}}`,
			wantCode: CodeInvalidParams,
			wantMsg:  MessageInvalidParams,
		},
		{
			name:     "params of wrong type",
			line:     `{"jsonrpc":"2.0","method":"expand_content_tool","params":"H"}`,
			wantCode: CodeServerError,
		},
		{
			name:     "not an object",
			line:     `[1,2,3]`,
			wantCode: CodeServerError,
		},
		{
			name:     "null request",
			line:     `null`,
			wantCode: CodeServerError,
		},
		{
			name:     "string request",
			line:     `"expand_content_tool"`,
			wantCode: CodeServerError,
		},
		{
			name:     "non-string method",
			line:     `{"method":5}`,
			wantCode: CodeMethodNotFound,
			wantMsg:  MessageNotFound,
		},
		{
			name:      "non-string jsonrpc is ignored",
			line:      `{"jsonrpc":2,"method":"expand_content_tool","params":{"header":"H","content":"C"}}`,
			ok:        true,
			wantOK:    true,
			wantMsg:   MessageUpdated,
			wantCalls: 1,
		},
		{
			name:      "update succeeds",
			line:      `{"jsonrpc":"2.0","method":"expand_content_tool","params":{"header":"H","content":"C"}}`,
			ok:        true,
			wantOK:    true,
			wantMsg:   MessageUpdated,
			wantCalls: 1,
		},
		{
			name:      "update fails",
			line:      `{"jsonrpc":"2.0","method":"expand_content_tool","params":{"header":"H","content":"C"}}`,
			wantMsg:   MessageUpdateFailed,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := &fakeUpdater{ok: tt.ok}
			d := NewDispatcher(pages, nil, quietLogger())

			resp, err := d.HandleLine(context.Background(), []byte(tt.line))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.JSONRPC != Version {
				t.Errorf("expected jsonrpc %q, got %q", Version, resp.JSONRPC)
			}
			if len(pages.calls) != tt.wantCalls {
				t.Errorf("expected %d updater calls, got %d", tt.wantCalls, len(pages.calls))
			}
			if tt.wantCode != 0 {
				if resp.Error == nil || resp.Result != nil {
					t.Fatalf("expected error response, got %+v", resp)
				}
				if resp.Error.Code != tt.wantCode {
					t.Errorf("expected code %d, got %d", tt.wantCode, resp.Error.Code)
				}
				if tt.wantMsg != "" && resp.Error.Message != tt.wantMsg {
					t.Errorf("expected message %q, got %q", tt.wantMsg, resp.Error.Message)
				}
				return
			}
			if resp.Result == nil || resp.Error != nil {
				t.Fatalf("expected result response, got %+v", resp)
			}
			if resp.Result.Success != tt.wantOK || resp.Result.Message != tt.wantMsg {
				t.Errorf("unexpected result %+v", resp.Result)
			}
		})
	}
}

func TestHandleLineMalformed(t *testing.T) {
	pages := &fakeUpdater{ok: true}
	d := NewDispatcher(pages, nil, quietLogger())

	resp, err := d.HandleLine(context.Background(), []byte(`{"jsonrpc":"2.0",`))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if resp != nil {
		t.Errorf("expected no response, got %+v", resp)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	d := NewDispatcher(&fakeUpdater{panics: true}, nil, quietLogger())

	resp := d.Dispatch(context.Background(), &Request{
		JSONRPC: Version,
		Method:  MethodExpandContent,
		Params:  []byte(`{"header":"H","content":"C"}`),
	})
	if resp.Error == nil || resp.Error.Code != CodeServerError {
		t.Fatalf("expected server error, got %+v", resp)
	}
	if resp.Error.Message != "boom" {
		t.Errorf("expected panic text, got %q", resp.Error.Message)
	}
}

func TestDispatchEchoesID(t *testing.T) {
	d := NewDispatcher(&fakeUpdater{ok: true}, nil, quietLogger())

	resp, err := d.HandleLine(context.Background(), []byte(`{"jsonrpc":"2.0","id":7,"method":"nope"}`))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.ID) != "7" {
		t.Errorf("expected id 7, got %q", resp.ID)
	}
}

func TestDispatchPublishesEvents(t *testing.T) {
	events := service.NewEvents()
	var got []service.PageEvent
	events.SubscribePageEvents(func(ev service.PageEvent) {
		got = append(got, ev)
	})
	d := NewDispatcher(&fakeUpdater{ok: false}, events, quietLogger())

	d.HandleLine(context.Background(), []byte(`{"method":"expand_content_tool","params":{"header":"H","content":"C"}}`))
	d.HandleLine(context.Background(), []byte(`{"method":"expand_content_tool","params":{"header":"","content":"C"}}`))

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Header != "H" || got[0].Success || got[0].RequestID == "" {
		t.Errorf("unexpected event %+v", got[0])
	}
}
