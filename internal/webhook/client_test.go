package webhook_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/webhook"
)

type capture struct {
	hits    atomic.Int32
	path    atomic.Value
	payload atomic.Value
}

func newWebhookServer(t *testing.T, status int, body string) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.hits.Add(1)
		c.path.Store(r.URL.Path)
		var got map[string]any
		if err := json.NewDecoder(r.Body).Decode(&got); err == nil {
			c.payload.Store(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func endpointsFor(srv *httptest.Server) webhook.Endpoints {
	return webhook.Endpoints{
		TestURL:       srv.URL + "/webhook-test/run",
		ProductionURL: srv.URL + "/webhook/run",
	}
}

func TestEndpointsSelect(t *testing.T) {
	e := webhook.Endpoints{TestURL: "http://t", ProductionURL: "http://p"}

	got, err := e.Select("Development")
	require.NoError(t, err)
	assert.Equal(t, "http://t", got)

	got, err = e.Select("development")
	require.NoError(t, err)
	assert.Equal(t, "http://t", got)

	for _, env := range []string{"Production", "Staging", ""} {
		got, err = e.Select(env)
		require.NoError(t, err)
		assert.Equal(t, "http://p", got, "env=%q", env)
	}

	_, err = webhook.Endpoints{TestURL: "http://t"}.Select("Development")
	assert.ErrorIs(t, err, webhook.ErrNotConfigured)
	_, err = webhook.Endpoints{ProductionURL: "http://p"}.Select("Production")
	assert.ErrorIs(t, err, webhook.ErrNotConfigured)
}

func TestClientDispatch_Payload(t *testing.T) {
	srv, c := newWebhookServer(t, http.StatusOK, `{"output":"ok"}`)
	client := webhook.NewClient(endpointsFor(srv), "Production", time.Second, zap.NewNop())

	body, err := client.Dispatch(context.Background(), webhook.Request{
		PromptID:   7,
		Model:      "gpt-4o",
		Input:      "Lisbon",
		PromptBody: "Write a travel itinerary",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"output":"ok"}`, body)
	assert.Equal(t, int32(1), c.hits.Load())
	assert.Equal(t, "/webhook/run", c.path.Load())

	payload, ok := c.payload.Load().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"promptId":   float64(7),
		"model":      "gpt-4o",
		"input":      "Lisbon",
		"promptBody": "Write a travel itinerary",
	}, payload)
}

func TestClientDispatch_DevelopmentUsesTestURL(t *testing.T) {
	srv, c := newWebhookServer(t, http.StatusOK, `{}`)
	client := webhook.NewClient(endpointsFor(srv), "Development", time.Second, zap.NewNop())

	_, err := client.Dispatch(context.Background(), webhook.Request{PromptID: 1})
	require.NoError(t, err)
	assert.Equal(t, "/webhook-test/run", c.path.Load())
}

func TestClientDispatch_ErrorStatus(t *testing.T) {
	srv, _ := newWebhookServer(t, http.StatusInternalServerError, `boom`)
	client := webhook.NewClient(endpointsFor(srv), "Production", time.Second, zap.NewNop())

	_, err := client.Dispatch(context.Background(), webhook.Request{PromptID: 1})
	var ue *webhook.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusInternalServerError, ue.StatusCode)
	assert.Equal(t, "boom", ue.Body)
}

func TestClientDispatch_TransportError(t *testing.T) {
	srv, _ := newWebhookServer(t, http.StatusOK, `{}`)
	endpoints := endpointsFor(srv)
	srv.Close()

	client := webhook.NewClient(endpoints, "Production", time.Second, zap.NewNop())
	_, err := client.Dispatch(context.Background(), webhook.Request{PromptID: 1})
	var ue *webhook.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Zero(t, ue.StatusCode)
	assert.Error(t, ue.Err)
}

func TestClientDispatch_NotConfigured(t *testing.T) {
	srv, c := newWebhookServer(t, http.StatusOK, `{}`)
	client := webhook.NewClient(webhook.Endpoints{ProductionURL: srv.URL}, "Production", time.Second, zap.NewNop())

	_, err := client.Dispatch(context.Background(), webhook.Request{PromptID: 1})
	assert.ErrorIs(t, err, webhook.ErrNotConfigured)
	assert.Zero(t, c.hits.Load())
}

func TestClientDispatch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := webhook.NewClient(endpointsFor(srv), "Production", 50*time.Millisecond, zap.NewNop())
	_, err := client.Dispatch(context.Background(), webhook.Request{PromptID: 1})
	var ue *webhook.UpstreamError
	assert.True(t, errors.As(err, &ue))
}
