// Package pdf renders HTML to PDF in a headless browser that is downloaded
// on first use.
package pdf

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/joestump/fera-prompt/internal/metrics"
)

// ErrProvisioningFailed is returned when no browser executable could be
// resolved.
var ErrProvisioningFailed = errors.New("browser provisioning failed")

// Installer makes a browser executable available and returns its path.
// Install must be idempotent: an existing install is verified, not replaced.
type Installer interface {
	Install(ctx context.Context) (string, error)
}

// Gate serializes browser provisioning for the whole process. Only the
// install step is guarded; rendering runs concurrently.
type Gate struct {
	sem       *semaphore.Weighted
	installer Installer
	logger    *zap.Logger
}

func NewGate(installer Installer, logger *zap.Logger) *Gate {
	return &Gate{
		sem:       semaphore.NewWeighted(1),
		installer: installer,
		logger:    logger.Named("pdf.gate"),
	}
}

// EnsureExecutable waits for the single provisioning permit, runs the
// installer and returns the executable path. The permit is released on every
// exit path, including a panicking installer.
func (g *Gate) EnsureExecutable(ctx context.Context) (path string, err error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for browser provisioning: %w", err)
	}
	defer g.sem.Release(1)

	metrics.BrowserProvisioningInFlight.Inc()
	defer metrics.BrowserProvisioningInFlight.Dec()

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("browser installer panicked", zap.Any("panic", r))
			path, err = "", fmt.Errorf("%w: installer panic: %v", ErrProvisioningFailed, r)
		}
	}()

	path, err = g.installer.Install(ctx)
	if err != nil {
		g.logger.Error("browser provisioning failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
	}
	if path == "" {
		return "", ErrProvisioningFailed
	}
	g.logger.Debug("browser executable ready", zap.String("path", path))
	return path, nil
}
