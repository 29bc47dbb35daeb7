package api_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/api"
	"github.com/joestump/fera-prompt/internal/pdf"
	"github.com/joestump/fera-prompt/internal/prompt"
	"github.com/joestump/fera-prompt/internal/store"
	"github.com/joestump/fera-prompt/internal/testutil"
	"github.com/joestump/fera-prompt/internal/webhook"
)

// fakeRenderer returns out or err and counts calls.
type fakeRenderer struct {
	out   []byte
	err   error
	calls atomic.Int32
}

func (f *fakeRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	f.calls.Add(1)
	return f.out, f.err
}

// testEnv holds the stores and router used by API integration tests.
type testEnv struct {
	Router       http.Handler
	Prompts      *store.PromptStore
	Histories    *store.HistoryStore
	Renderer     *fakeRenderer
	WebhookHits  *atomic.Int32
	webhookReply atomic.Value
	webhookCode  atomic.Int32
}

// newTestEnv creates an in-memory SQLite database, a fake webhook server and
// the full API router wired to real stores.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	env := &testEnv{
		Prompts:     store.NewPromptStore(db),
		Histories:   store.NewHistoryStore(db),
		Renderer:    &fakeRenderer{out: []byte("%PDF-1.4 test")},
		WebhookHits: &atomic.Int32{},
	}
	env.setWebhook(http.StatusOK, `{"output":"ok"}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.WebhookHits.Add(1)
		w.WriteHeader(int(env.webhookCode.Load()))
		_, _ = w.Write([]byte(env.webhookReply.Load().(string)))
	}))
	t.Cleanup(srv.Close)

	client := webhook.NewClient(webhook.Endpoints{TestURL: srv.URL, ProductionURL: srv.URL}, "Production", time.Second, zap.NewNop())
	svc := prompt.NewService(env.Prompts, env.Histories, client, zap.NewNop())

	env.Router = api.NewAPIRouter(api.Deps{
		Prompts:   env.Prompts,
		Histories: env.Histories,
		Executor:  svc,
		Renderer:  env.Renderer,
		Logger:    zap.NewNop(),
	})
	return env
}

func (env *testEnv) setWebhook(status int, body string) {
	env.webhookCode.Store(int32(status))
	env.webhookReply.Store(body)
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

func seedPrompt(t *testing.T, env *testEnv, title string) *store.Prompt {
	t.Helper()
	p, err := env.Prompts.Create(context.Background(), store.NewPrompt{Title: title, Body: "Plan a trip", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("seed prompt: %v", err)
	}
	return p
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v; body: %s", err, rec.Body.String())
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

var errBoom = errors.New("boom")

// Ensure the fake matches the interface used by the router.
var _ api.PDFRenderer = (*fakeRenderer)(nil)
var _ api.Executor = (*prompt.Service)(nil)
var _ api.PDFRenderer = (*pdf.Renderer)(nil)
