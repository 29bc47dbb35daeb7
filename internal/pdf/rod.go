package pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"go.uber.org/zap"
)

// A4 in inches.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// networkIdle is how long the page must stay free of requests before it is
// printed.
const networkIdle = 500 * time.Millisecond

// RodInstaller downloads Chromium into Dir on first use. When Path is set
// that executable is used as-is and nothing is downloaded.
type RodInstaller struct {
	Dir    string
	Path   string
	Logger *zap.Logger
}

func (i *RodInstaller) Install(ctx context.Context) (string, error) {
	if i.Path != "" {
		info, err := os.Stat(i.Path)
		if err != nil {
			return "", fmt.Errorf("browser.path: %w", err)
		}
		if info.IsDir() || info.Mode()&0o111 == 0 {
			return "", fmt.Errorf("browser.path %q is not an executable file", i.Path)
		}
		return i.Path, nil
	}

	b := launcher.NewBrowser()
	b.Context = ctx
	if i.Dir != "" {
		b.RootDir = i.Dir
	}
	if i.Logger != nil {
		b.Logger = rodLogger{i.Logger.Sugar()}
	}
	return b.Get()
}

// rodLogger forwards launcher download progress to zap.
type rodLogger struct {
	s *zap.SugaredLogger
}

func (l rodLogger) Println(args ...interface{}) { l.s.Info(args...) }

// RodEngine launches headless Chromium through the DevTools protocol.
type RodEngine struct{}

func (RodEngine) Launch(ctx context.Context, bin string) (Session, error) {
	// The OS sandbox needs privileges containers usually lack.
	l := launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(true).
		NoSandbox(true).
		Set("disable-setuid-sandbox")

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, err
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, err
	}
	return &rodSession{launcher: l, browser: browser}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func (s *rodSession) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	waitIdle := page.WaitRequestIdle(networkIdle, nil, nil, nil)
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	waitIdle()

	r, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      gson.Num(a4Width),
		PaperHeight:     gson.Num(a4Height),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return io.ReadAll(r)
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}
