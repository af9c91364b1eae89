package mcp

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fleetdash/fleetdash/internal/api"
	"github.com/fleetdash/fleetdash/internal/demo"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	d, err := demo.New(demo.Options{Counts: demo.Counts{api.Device: 30, api.Role: 3}})
	if err != nil {
		t.Fatalf("demo.New() error = %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	t.Cleanup(srv.Close)

	return NewServer("test", func() (*api.Client, error) {
		return api.NewClient(srv.URL, api.WithRetries(0, time.Millisecond)), nil
	})
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestHandleList(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleList(context.Background(), call(map[string]any{
		"resource": "devices",
		"limit":    float64(10),
		"offset":   float64(25),
	}))
	if err != nil {
		t.Fatalf("handleList() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleList() tool error: %s", resultText(t, res))
	}

	var out struct {
		Items   []map[string]any `json:"items"`
		Total   int              `json:"total"`
		HasMore bool             `json:"has_more"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Items) != 5 || out.Total != 30 || out.HasMore {
		t.Errorf("handleList() = %d items, total %d, has_more %v; want 5, 30, false", len(out.Items), out.Total, out.HasMore)
	}
}

func TestHandleList_Errors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing resource", map[string]any{}, "resource"},
		{"unknown resource", map[string]any{"resource": "sensor"}, "unknown resource"},
		{"bad sort", map[string]any{"resource": "role", "sort": "up"}, "invalid sort"},
		{"bad limit", map[string]any{"resource": "role", "limit": float64(1000)}, "limit"},
		{"bad order", map[string]any{"resource": "role", "order_by": "secret"}, "cannot order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleList(context.Background(), call(tt.args))
			if err != nil {
				t.Fatalf("handleList() error = %v", err)
			}
			if !res.IsError {
				t.Fatalf("handleList() succeeded, want tool error")
			}
			if got := resultText(t, res); !strings.Contains(got, tt.want) {
				t.Errorf("error = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestHandleGetAndStatus(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	list, _ := s.handleList(ctx, call(map[string]any{"resource": "role", "limit": float64(1)}))
	var out struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(resultText(t, list)), &out); err != nil || len(out.Items) != 1 {
		t.Fatalf("list roles: %v %v", err, out)
	}
	id := out.Items[0]["id"].(string)

	res, _ := s.handleGet(ctx, call(map[string]any{"resource": "role", "id": id}))
	if res.IsError || !strings.Contains(resultText(t, res), id) {
		t.Errorf("handleGet() = %s", resultText(t, res))
	}

	res, _ = s.handleStatus(ctx, call(nil))
	if !strings.Contains(resultText(t, res), `"reachable":true`) {
		t.Errorf("handleStatus() = %s", resultText(t, res))
	}
}

func TestNoConnector(t *testing.T) {
	s := NewServer("test", nil)
	res, _ := s.handleStatus(context.Background(), call(nil))
	if !res.IsError {
		t.Error("handleStatus() without connector succeeded")
	}
	res, _ = s.handleResources(context.Background(), call(nil))
	if res.IsError || !strings.Contains(resultText(t, res), "firmware") {
		t.Errorf("handleResources() = %s", resultText(t, res))
	}
}
