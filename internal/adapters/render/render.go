// Package render prints report pages to PDF in headless Chrome and stamps
// document properties onto the result.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/okian/recruitstat/pkg/logger"
)

// Renderer turns a standalone HTML page into a PDF and reports its page count.
type Renderer interface {
	Render(ctx context.Context, html string, props map[string]string) ([]byte, int, error)
}

// Func adapts a function to Renderer.
type Func func(ctx context.Context, html string, props map[string]string) ([]byte, int, error)

// Render calls f.
func (f Func) Render(ctx context.Context, html string, props map[string]string) ([]byte, int, error) {
	return f(ctx, html, props)
}

// Config selects the browser. ControlURL attaches to a running browser; Bin
// launches the given executable; with neither the launcher finds or downloads
// a browser.
type Config struct {
	Bin        string
	ControlURL string
}

// Chrome renders through a lazily connected headless browser shared by all
// callers. Each render uses its own tab.
type Chrome struct {
	cfg Config
	log logger.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

// NewChrome returns a renderer that connects on first use.
func NewChrome(cfg Config, log logger.Logger) *Chrome {
	if log == nil {
		log = logger.Nop()
	}
	return &Chrome{cfg: cfg, log: log}
}

func (c *Chrome) connect(ctx context.Context) (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		if _, err := c.browser.Version(); err == nil {
			return c.browser, nil
		}
		c.log.Warn(ctx, "stale browser connection, reconnecting")
		_ = c.browser.Close()
		c.browser = nil
	}

	controlURL := c.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		if c.cfg.Bin != "" {
			l = l.Bin(c.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: launch: %w", ErrBrowser, err)
		}
		controlURL = u
	}

	// The browser outlives the request that triggered the connection.
	browser := rod.New().ControlURL(controlURL).Context(context.WithoutCancel(ctx))
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrBrowser, err)
	}
	c.browser = browser
	c.log.Info(ctx, "browser connected", logger.String("control_url", controlURL))
	return browser, nil
}

// Render prints html on A4 with backgrounds and stamps props into the PDF.
func (c *Chrome) Render(ctx context.Context, html string, props map[string]string) ([]byte, int, error) {
	browser, err := c.connect(ctx)
	if err != nil {
		return nil, 0, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open tab: %w", ErrPrint, err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, 0, fmt.Errorf("%w: load: %w", ErrPrint, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, 0, fmt.Errorf("%w: wait load: %w", ErrPrint, err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: print: %w", ErrPrint, err)
	}
	raw, err := io.ReadAll(stream)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read: %w", ErrPrint, err)
	}
	return Stamp(raw, props)
}

// Close disconnects from the browser.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	return err
}

// Stamp writes props into the PDF info dictionary and counts pages. Empty
// props leave the document unchanged.
func Stamp(pdf []byte, props map[string]string) ([]byte, int, error) {
	out := pdf
	if len(props) > 0 {
		var buf bytes.Buffer
		if err := api.AddProperties(bytes.NewReader(pdf), &buf, props, nil); err != nil {
			return nil, 0, fmt.Errorf("%w: properties: %w", ErrStamp, err)
		}
		out = buf.Bytes()
	}
	pages, err := api.PageCount(bytes.NewReader(out), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: page count: %w", ErrStamp, err)
	}
	return out, pages, nil
}
