package pdf_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/pdf"
)

// fakeInstaller records how many Install calls overlap.
type fakeInstaller struct {
	path     string
	err      error
	panicMsg string
	delay    time.Duration

	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeInstaller) Install(ctx context.Context) (string, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(f.delay)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.path, f.err
}

type fakeSession struct {
	id     int32
	out    []byte
	err    error
	closed atomic.Bool
}

func (s *fakeSession) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte(nil), s.out...), nil
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeEngine struct {
	launchErr error
	renderErr error

	mu       sync.Mutex
	bins     []string
	sessions []*fakeSession
}

func (e *fakeEngine) Launch(ctx context.Context, bin string) (pdf.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bins = append(e.bins, bin)
	if e.launchErr != nil {
		return nil, e.launchErr
	}
	s := &fakeSession{id: int32(len(e.sessions) + 1), out: []byte("%PDF-1.4"), err: e.renderErr}
	e.sessions = append(e.sessions, s)
	return s, nil
}

func (e *fakeEngine) launches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bins)
}

func TestGate_SinglePermit(t *testing.T) {
	inst := &fakeInstaller{path: "/opt/chrome", delay: 20 * time.Millisecond}
	gate := pdf.NewGate(inst, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, err := gate.EnsureExecutable(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "/opt/chrome", path)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(8), inst.calls.Load())
	assert.Equal(t, int32(1), inst.maxSeen.Load())
}

func TestGate_ReleasedAfterFailure(t *testing.T) {
	inst := &fakeInstaller{err: errors.New("download interrupted")}
	gate := pdf.NewGate(inst, zap.NewNop())

	_, err := gate.EnsureExecutable(context.Background())
	assert.ErrorIs(t, err, pdf.ErrProvisioningFailed)

	inst.err = nil
	inst.path = "/opt/chrome"
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	path, err := gate.EnsureExecutable(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/opt/chrome", path)
}

func TestGate_ReleasedAfterPanic(t *testing.T) {
	inst := &fakeInstaller{panicMsg: "corrupt archive"}
	gate := pdf.NewGate(inst, zap.NewNop())

	_, err := gate.EnsureExecutable(context.Background())
	assert.ErrorIs(t, err, pdf.ErrProvisioningFailed)

	inst.panicMsg = ""
	inst.path = "/opt/chrome"
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = gate.EnsureExecutable(ctx)
	assert.NoError(t, err)
}

func TestGate_EmptyPath(t *testing.T) {
	gate := pdf.NewGate(&fakeInstaller{}, zap.NewNop())
	_, err := gate.EnsureExecutable(context.Background())
	assert.ErrorIs(t, err, pdf.ErrProvisioningFailed)
}

func TestGate_CancelledWhileWaiting(t *testing.T) {
	inst := &fakeInstaller{path: "/opt/chrome", delay: 200 * time.Millisecond}
	gate := pdf.NewGate(inst, zap.NewNop())

	go func() { _, _ = gate.EnsureExecutable(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := gate.EnsureExecutable(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRender_BlankHTMLLaunchesNothing(t *testing.T) {
	inst := &fakeInstaller{path: "/opt/chrome"}
	engine := &fakeEngine{}
	r := pdf.NewRenderer(pdf.NewGate(inst, zap.NewNop()), engine, zap.NewNop())

	for _, html := range []string{"", "   ", "\n"} {
		_, err := r.Render(context.Background(), html)
		assert.ErrorIs(t, err, pdf.ErrInvalidInput)
	}
	assert.Zero(t, inst.calls.Load())
	assert.Zero(t, engine.launches())
}

func TestRender_Success(t *testing.T) {
	engine := &fakeEngine{}
	r := pdf.NewRenderer(pdf.NewGate(&fakeInstaller{path: "/opt/chrome"}, zap.NewNop()), engine, zap.NewNop())

	out, err := r.Render(context.Background(), "<h1>Hello</h1>")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), out)
	require.Len(t, engine.sessions, 1)
	assert.True(t, engine.sessions[0].closed.Load())
	assert.Equal(t, []string{"/opt/chrome"}, engine.bins)
}

func TestRender_ProvisioningFailure(t *testing.T) {
	engine := &fakeEngine{}
	r := pdf.NewRenderer(pdf.NewGate(&fakeInstaller{err: errors.New("no disk")}, zap.NewNop()), engine, zap.NewNop())

	_, err := r.Render(context.Background(), "<p>x</p>")
	assert.ErrorIs(t, err, pdf.ErrProvisioningFailed)
	assert.Zero(t, engine.launches())
}

func TestRender_LaunchFailure(t *testing.T) {
	engine := &fakeEngine{launchErr: errors.New("exec format error")}
	r := pdf.NewRenderer(pdf.NewGate(&fakeInstaller{path: "/opt/chrome"}, zap.NewNop()), engine, zap.NewNop())

	_, err := r.Render(context.Background(), "<p>x</p>")
	var re *pdf.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "launch", re.Op)
}

func TestRender_PrintFailureClosesSession(t *testing.T) {
	engine := &fakeEngine{renderErr: errors.New("target crashed")}
	r := pdf.NewRenderer(pdf.NewGate(&fakeInstaller{path: "/opt/chrome"}, zap.NewNop()), engine, zap.NewNop())

	_, err := r.Render(context.Background(), "<p>x</p>")
	var re *pdf.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "render", re.Op)
	require.Len(t, engine.sessions, 1)
	assert.True(t, engine.sessions[0].closed.Load())
}

func TestRender_ConcurrentCallsUseOwnSessions(t *testing.T) {
	inst := &fakeInstaller{path: "/opt/chrome", delay: 5 * time.Millisecond}
	engine := &fakeEngine{}
	r := pdf.NewRenderer(pdf.NewGate(inst, zap.NewNop()), engine, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Render(context.Background(), "<p>x</p>")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), inst.maxSeen.Load())
	require.Len(t, engine.sessions, 5)
	ids := map[int32]bool{}
	for _, s := range engine.sessions {
		assert.True(t, s.closed.Load())
		ids[s.id] = true
	}
	assert.Len(t, ids, 5)
}

func TestRodInstaller_ExplicitPath(t *testing.T) {
	inst := &pdf.RodInstaller{Path: "/definitely/missing/chrome"}
	_, err := inst.Install(context.Background())
	assert.Error(t, err)

	dir := t.TempDir()
	inst = &pdf.RodInstaller{Path: dir}
	_, err = inst.Install(context.Background())
	assert.Error(t, err)
}
