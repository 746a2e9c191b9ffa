package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) Init(r chi.Router) {
	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type starterFunc func(ctx context.Context) error

func (f starterFunc) Start(ctx context.Context) error { return f(ctx) }

type fakeConsumer struct {
	closed atomic.Bool
}

func (c *fakeConsumer) Consume(ctx context.Context) { <-ctx.Done() }

func (c *fakeConsumer) Close() error {
	c.closed.Store(true)
	return nil
}

func newTestApp() *application {
	cfg := config.Config{
		Http: config.Http{Host: "127.0.0.1", Port: "0"},
		Cors: config.CORS{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApp()
	a.SetHTTPHandlers(pingHandler{})

	testCases := []struct {
		name   string
		target string
		want   int
	}{
		{name: "registered handler", target: "/api/ping", want: http.StatusOK},
		{name: "metrics", target: "/metrics", want: http.StatusOK},
		{name: "unknown route", target: "/api/unknown", want: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			a.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.target, nil))
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestApplication_StartStop(t *testing.T) {
	t.Run("runs starters and closes consumers", func(t *testing.T) {
		a := newTestApp()
		consumer := &fakeConsumer{}
		var started atomic.Int32
		a.SetConsumers(consumer)
		a.SetStarters(
			starterFunc(func(ctx context.Context) error { started.Add(1); return nil }),
			starterFunc(func(ctx context.Context) error { started.Add(1); return nil }),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, a.Start(ctx))
		assert.Equal(t, int32(2), started.Load())

		require.NoError(t, a.Stop())
		assert.True(t, consumer.closed.Load())
	})

	t.Run("starter error aborts start", func(t *testing.T) {
		a := newTestApp()
		consumer := &fakeConsumer{}
		a.SetConsumers(consumer)
		a.SetStarters(starterFunc(func(ctx context.Context) error { return errors.New("warm up failed") }))

		err := a.Start(context.Background())

		assert.ErrorContains(t, err, "warm up failed")
	})
}
