package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rickgao/mazaneh-relay/internal/hub"
	"github.com/rickgao/mazaneh-relay/internal/model"
	"github.com/rickgao/mazaneh-relay/internal/pipeline"
	"github.com/rickgao/mazaneh-relay/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	mu      sync.Mutex
	point   model.PricePoint
	ok      bool
	err     error
	pingErr error
	reads   atomic.Int32
	gate    chan struct{} // when set, Latest waits on it
}

func (f *fakeStore) Latest(ctx context.Context) (model.PricePoint, bool, error) {
	f.reads.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.point, f.ok, f.err
}

func (f *fakeStore) Stats(ctx context.Context) (store.Stats, error) {
	return store.Stats{Rows: 12, SizeBytes: 8192}, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

type fakePipeline struct{}

func (fakePipeline) Stats() pipeline.Stats {
	return pipeline.Stats{Received: 5, Accepted: 2}
}

func newTestServer(st *fakeStore) (*Server, *hub.Registry) {
	reg := hub.NewRegistry(st, nil)
	return New(Config{Conn: hub.DefaultConnConfig()}, reg, st, fakePipeline{}, "1.2.3", nil), reg
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(&fakeStore{})

	rr := httptest.NewRecorder()
	s.Routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Status     string `json:"status"`
		Version    string `json:"version"`
		Components struct {
			Database    string            `json:"database"`
			Store       store.Stats       `json:"store"`
			Subscribers hub.RegistryStats `json:"subscribers"`
			Pipeline    pipeline.Stats    `json:"pipeline"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", resp.Version)
	}
	if resp.Components.Database != "connected" {
		t.Errorf("database = %q, want connected", resp.Components.Database)
	}
	if resp.Components.Store.Rows != 12 {
		t.Errorf("store rows = %d, want 12", resp.Components.Store.Rows)
	}
	if resp.Components.Pipeline.Received != 5 || resp.Components.Pipeline.Accepted != 2 {
		t.Errorf("pipeline = %+v", resp.Components.Pipeline)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	s, _ := newTestServer(&fakeStore{pingErr: errors.New("connection refused")})

	rr := httptest.NewRecorder()
	s.Routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "connection refused") {
		t.Errorf("body = %s, want the database error", rr.Body.String())
	}
}

func TestLatest(t *testing.T) {
	created := time.Date(2023, 10, 8, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		store    *fakeStore
		wantCode int
		wantBody string
	}{
		{
			name:     "empty ledger",
			store:    &fakeStore{},
			wantCode: http.StatusOK,
			wantBody: `{"price":null,"timestamp":null}`,
		},
		{
			name: "latest point",
			store: &fakeStore{
				point: model.PricePoint{ID: 4, Price: 3450000, CreatedAt: created, CreatedAtLocal: "1402/07/16 12:30:00"},
				ok:    true,
			},
			wantCode: http.StatusOK,
			wantBody: `{"id":4,"price":3450000,"timestamp":"1402/07/16 12:30:00","created_at":"2023-10-08T09:00:00Z"}`,
		},
		{
			name:     "store error",
			store:    &fakeStore{err: errors.New("boom")},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"error":"latest price unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(tt.store)

			rr := httptest.NewRecorder()
			s.Routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/latest", nil))

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if got := rr.Body.String(); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestLatest_ConcurrentRequestsShareOneRead(t *testing.T) {
	st := &fakeStore{gate: make(chan struct{}), ok: true, point: model.PricePoint{ID: 1, Price: 1}}
	s, _ := newTestServer(st)
	handler := s.Routes()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/latest", nil))
		}()
	}

	// Let the requests pile up behind the first read
	time.Sleep(50 * time.Millisecond)
	close(st.gate)
	wg.Wait()

	if n := st.reads.Load(); n >= 5 {
		t.Errorf("store reads = %d, want fewer than 5", n)
	}
}

func TestWS_InitAndBroadcast(t *testing.T) {
	st := &fakeStore{
		point: model.PricePoint{ID: 1, Price: 3450000, CreatedAtLocal: "1402/07/16 12:30:00"},
		ok:    true,
	}
	s, reg := newTestServer(st)
	server := httptest.NewServer(s.Routes())
	defer server.Close()
	defer s.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read init: %v", err)
	}
	if want := `{"type":"init","price":3450000,"timestamp":"1402/07/16 12:30:00"}`; string(data) != want {
		t.Errorf("init = %s, want %s", data, want)
	}

	deadline := time.Now().Add(2 * time.Second)
	for reg.Count() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	prev := int64(3450000)
	reg.Broadcast(model.NewUpdateEvent(model.PricePoint{Price: 3460000, CreatedAtLocal: "1402/07/16 12:31:00"}, &prev))

	_, data, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("read update: %v", err)
	}
	if want := `{"type":"mazaneh_update","price":3460000,"timestamp":"1402/07/16 12:31:00","previous_price":3450000}`; string(data) != want {
		t.Errorf("update = %s, want %s", data, want)
	}

	// Close drops every subscriber
	s.Close()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected the connection to close")
	}
}

func TestWS_PlainRequestRejected(t *testing.T) {
	s, _ := newTestServer(&fakeStore{})

	rr := httptest.NewRecorder()
	s.Routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	st := &fakeStore{}
	reg := hub.NewRegistry(st, nil)
	s := New(Config{Addr: "127.0.0.1:0"}, reg, st, nil, "dev", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
