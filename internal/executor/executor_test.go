package executor

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newExecutor() *Executor {
	client := httpclient.New(httpclient.Config{
		Timeout:         5 * time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 10,
	})
	return New(client, testLogger())
}

func TestExecute_FirstCandidateSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order_id": 7}`))
	}))
	defer srv.Close()

	res := newExecutor().Execute(context.Background(), []routing.Candidate{
		{Method: "POST", URL: srv.URL + "/orders", Payload: map[string]any{"user_id": 1}},
	}, time.Second)

	require.True(t, res.OK)
	assert.Equal(t, http.StatusCreated, res.Status)

	id, ok := IntField(res.Data, "order_id", "id")
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestExecute_FallsBackPast405(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /stocks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	mux.HandleFunc("POST /stocks/decrease", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": "ok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newExecutor().Execute(context.Background(), []routing.Candidate{
		{Method: "PUT", URL: srv.URL + "/stocks", Payload: map[string]any{"operation": "-"}},
		{Method: "POST", URL: srv.URL + "/stocks/decrease", Payload: map[string]any{}},
	}, time.Second)

	require.True(t, res.OK)
	assert.Equal(t, "ok", res.Data["result"])
}

func TestExecute_404ContinuesToNextCandidate(t *testing.T) {
	var secondCalled atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/present", func(w http.ResponseWriter, r *http.Request) {
		secondCalled.Store(true)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newExecutor().Execute(context.Background(), []routing.Candidate{
		{Method: "POST", URL: srv.URL + "/missing"},
		{Method: "POST", URL: srv.URL + "/present"},
	}, time.Second)

	assert.True(t, res.OK)
	assert.True(t, secondCalled.Load())
}

func TestExecute_HardFailureStopsIteration(t *testing.T) {
	var laterCalled atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "stock below zero", http.StatusConflict)
	})
	mux.HandleFunc("/never", func(w http.ResponseWriter, r *http.Request) {
		laterCalled.Store(true)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newExecutor().Execute(context.Background(), []routing.Candidate{
		{Method: "POST", URL: srv.URL + "/broken"},
		{Method: "POST", URL: srv.URL + "/never"},
	}, time.Second)

	require.False(t, res.OK)
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Contains(t, res.Message, "stock below zero")
	assert.False(t, laterCalled.Load(), "candidates after a hard failure must not be attempted")
}

func TestExecute_TimeoutTreatedAsNextCandidate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	})
	mux.HandleFunc("/fast", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": "ok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newExecutor().Execute(context.Background(), []routing.Candidate{
		{Method: "POST", URL: srv.URL + "/slow"},
		{Method: "POST", URL: srv.URL + "/fast"},
	}, 50*time.Millisecond)

	require.True(t, res.OK)
	assert.Equal(t, "ok", res.Data["result"])
}

func TestExecute_AllCandidatesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	res := newExecutor().Execute(context.Background(), []routing.Candidate{
		{Method: "POST", URL: srv.URL + "/a"},
		{Method: "POST", URL: srv.URL + "/b"},
	}, time.Second)

	require.False(t, res.OK)
	assert.Contains(t, res.Message, "no valid endpoint")
}

func TestExecute_ConnectionErrorIsHardFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listens here anymore

	res := newExecutor().Execute(context.Background(), []routing.Candidate{
		{Method: "POST", URL: url + "/orders"},
	}, time.Second)

	require.False(t, res.OK)
	assert.Zero(t, res.Status)
	assert.NotEmpty(t, res.Message)
}

func TestExecute_NoCandidates(t *testing.T) {
	res := newExecutor().Execute(context.Background(), nil, time.Second)

	require.False(t, res.OK)
	assert.Contains(t, res.Message, "no endpoint candidates")
}

func TestExecute_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	res := newExecutor().Execute(context.Background(), []routing.Candidate{
		{Method: "POST", URL: srv.URL},
	}, time.Second)

	require.True(t, res.OK)
	assert.Empty(t, res.Data)
}

func TestIntField(t *testing.T) {
	data := map[string]any{"id": float64(12), "label": "x"}

	id, ok := IntField(data, "order_id", "id")
	require.True(t, ok)
	assert.Equal(t, int64(12), id)

	_, ok = IntField(data, "payment_id")
	assert.False(t, ok)

	id, ok = IntField(map[string]any{"order_id": "33"}, "order_id")
	require.True(t, ok)
	assert.Equal(t, int64(33), id)
}

func TestStringField(t *testing.T) {
	s, ok := StringField(map[string]any{"payment_id": "p-9"}, "id", "payment_id")
	require.True(t, ok)
	assert.Equal(t, "p-9", s)

	s, ok = StringField(map[string]any{"id": float64(41)}, "id")
	require.True(t, ok)
	assert.Equal(t, "41", s)

	_, ok = StringField(map[string]any{"id": ""}, "id")
	assert.False(t, ok)
}
