package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdash/fleetdash/internal/feed"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", WithRetries(2, time.Millisecond))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClient_ListEnvelope(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/device", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("offset"))
		assert.Equal(t, "name", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort"))
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{{"id": "a", "name": "gw-1"}, {"id": "b", "name": "gw-2"}},
			"total": 42,
		})
	})

	page, err := c.List(context.Background(), Device, Query{Limit: 10, Offset: 20, OrderBy: "name", Sort: Desc})
	require.NoError(t, err)
	assert.Equal(t, 42, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].ID())
}

func TestClient_ListBareArray(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1}, {"id": 2}, {"id": 3}})
	})

	page, err := c.List(context.Background(), User, Query{})
	require.NoError(t, err)
	assert.Equal(t, -1, page.Total)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, "3", page.Items[2].ID())
}

func TestClient_BearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "r1", "name": "admin"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Get(context.Background(), Role, "r1")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "missing token")

	rec, err := NewClient(srv.URL, WithToken("tok")).Get(context.Background(), Role, "r1")
	require.NoError(t, err)
	assert.Equal(t, "admin", rec.String("name"))
}

func TestClient_WithTokenKeepsOptions(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "warming up"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "r1", "name": "admin"})
	}))
	defer srv.Close()

	base := NewClient(srv.URL, WithRetries(2, time.Millisecond))
	authed := base.WithToken("tok")

	assert.False(t, base.HasToken())
	assert.True(t, authed.HasToken())
	assert.Equal(t, base.BaseURL(), authed.BaseURL())

	// two 503s are retried away only if the retry setting carried over
	rec, err := authed.Get(context.Background(), Role, "r1")
	require.NoError(t, err)
	assert.Equal(t, "admin", rec.String("name"))
	assert.Equal(t, int32(3), calls.Load())

	_, err = base.Get(context.Background(), Role, "r1")
	assert.True(t, IsUnauthorized(err))
}

func TestClient_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "warming up"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": "1.0"})
	})

	h, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadGateway, map[string]string{"message": "upstream down"})
	})

	_, err := c.Ping(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such firmware", http.StatusNotFound)
	})

	_, err := c.Get(context.Background(), Firmware, "x/y")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "no such firmware")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Login(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "hunter2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": "abc"})
	})

	sess, err := c.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "abc", sess.Token)
	assert.Equal(t, "admin", sess.Username)

	_, err = c.Login(context.Background(), "admin", "wrong")
	assert.True(t, IsUnauthorized(err))
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx, Map, Query{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPager_FeedsFeed(t *testing.T) {
	const size = 25
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var q struct{ limit, offset int }
		json.Unmarshal([]byte(r.URL.Query().Get("limit")), &q.limit)
		json.Unmarshal([]byte(r.URL.Query().Get("offset")), &q.offset)
		items := []map[string]any{}
		for i := q.offset; i < size && i < q.offset+q.limit; i++ {
			items = append(items, map[string]any{"id": i})
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": size})
	})

	cfg := feed.RowConfig(10)
	f := feed.New[Record](context.Background(), Pager{Client: c, Resource: Group}, cfg)
	now := time.Unix(0, 0)
	for _, want := range []int{10, 20, 25} {
		ticket, ok := f.LoadMore(false, now)
		require.True(t, ok)
		_, applied := f.Complete(f.Fetch(ticket)())
		require.True(t, applied)
		assert.Equal(t, want, f.Count())
	}
	assert.False(t, f.HasMore())
	rec, _ := f.At(24)
	assert.Equal(t, "24", rec.ID())
}

func TestPager_Each(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var offset int
		json.Unmarshal([]byte(r.URL.Query().Get("offset")), &offset)
		items := []map[string]any{}
		for i := offset; i < 7 && i < offset+3; i++ {
			items = append(items, map[string]any{"id": i})
		}
		// no total: the pager stops on the short page
		writeJSON(w, http.StatusOK, items)
	})

	var seen []string
	err := Pager{Client: c, Resource: Place}.Each(context.Background(), 3, func(p Page) error {
		for _, rec := range p.Items {
			seen = append(seen, rec.ID())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6"}, seen)
}
