package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/runner"
	"github.com/lmtray/lmtray/internal/status"
)

type fakeEngine struct {
	snap      engine.Snapshot
	triggered []models.Action
	err       error
}

func (f *fakeEngine) Status() engine.Snapshot { return f.snap }

func (f *fakeEngine) Subscribe() (<-chan engine.Snapshot, func()) {
	return make(chan engine.Snapshot), func() {}
}

func (f *fakeEngine) Trigger(a models.Action) (*runner.Handle, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.triggered = append(f.triggered, a)
	return &runner.Handle{ID: uuid.New(), Action: a}, nil
}

func readySnapshot() engine.Snapshot {
	s := models.RuntimeState{DaemonInstalled: true, DaemonRunning: true, ModelLoaded: true, ActiveModelID: "qwen", LoadedModels: []string{"qwen"}}
	return engine.Snapshot{State: s, Presentation: status.Describe(s, models.UpdateInfo{}, "qwen")}
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestActionStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"accepted", "/actions/start-daemon", nil, http.StatusAccepted},
		{"unknown action", "/actions/explode", nil, http.StatusBadRequest},
		{"busy", "/actions/stop-daemon", &runner.BusyError{Group: models.GroupRuntime, Running: models.ActionStartDaemon}, http.StatusConflict},
		{"debounced", "/actions/reload", engine.ErrDebounced, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{err: tt.err}
			rr := do(t, NewMux(eng, zerolog.Nop(), nil), http.MethodPost, tt.path)
			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestActionAcceptedBody(t *testing.T) {
	eng := &fakeEngine{}
	rr := do(t, NewMux(eng, zerolog.Nop(), nil), http.MethodPost, "/actions/load-model")
	require.Equal(t, http.StatusAccepted, rr.Code)

	var body ActionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, models.ActionLoadModel, body.Action)
	_, err := uuid.Parse(body.TaskID)
	assert.NoError(t, err)
	assert.Equal(t, []models.Action{models.ActionLoadModel}, eng.triggered)
}

func TestStatusEndpoint(t *testing.T) {
	eng := &fakeEngine{snap: readySnapshot()}
	rr := do(t, NewMux(eng, zerolog.Nop(), nil), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rr.Code)

	var got engine.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.True(t, got.State.DaemonRunning)
	assert.Equal(t, "ready", got.Presentation.Status)
	assert.True(t, got.Presentation.Menu.StopDaemon)
}

func TestHealthAndReadiness(t *testing.T) {
	eng := &fakeEngine{}
	mux := NewMux(eng, zerolog.Nop(), nil)

	assert.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, mux, http.MethodGet, "/readyz").Code)

	eng.snap = readySnapshot()
	assert.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/readyz").Code)
	assert.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/metrics").Code)
}

func TestApplyHealth(t *testing.T) {
	hs := health.NewServer()
	ctx := context.Background()

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		resp, err := hs.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return resp.Status
	}

	applyHealth(hs, engine.Snapshot{})
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(HealthOverall))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(HealthDaemon))

	applyHealth(hs, readySnapshot())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(HealthOverall))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(HealthDaemon))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(HealthDesktop))
}

func TestServerLifecycle(t *testing.T) {
	eng := &fakeEngine{snap: readySnapshot()}
	srv, err := New(eng, Config{HTTPAddr: "127.0.0.1:0", GRPCAddr: "127.0.0.1:0"}, zerolog.Nop())
	require.NoError(t, err)
	require.NotEmpty(t, srv.HTTPAddr())
	require.NotEmpty(t, srv.GRPCAddr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.HTTPAddr() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
