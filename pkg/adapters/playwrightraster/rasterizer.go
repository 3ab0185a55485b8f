// Package playwrightraster rasterizes SVG frames in headless Chromium through playwright-go.
package playwrightraster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/user/lottiemp4/pkg/adapters/ggrenderer"
	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// ErrNotOpen is returned when Rasterize is called outside Open/Close.
var ErrNotOpen = errors.New("playwrightraster: render surface not open")

// Options configures the rasterizer.
type Options struct {
	// ChromePath overrides the Playwright-managed Chromium build.
	ChromePath string
	// InstallBrowsers downloads the Playwright driver and Chromium when missing.
	InstallBrowsers bool
	Renderer        ports.Renderer
	Logger          ports.Logger
}

// Rasterizer implements ports.Rasterizer with a single Playwright page.
type Rasterizer struct {
	opts   Options
	logger ports.Logger

	mu       sync.Mutex
	pw       *playwright.Playwright
	browser  playwright.Browser
	page     playwright.Page
	viewport pipeline.Dimension
}

// New creates a Playwright rasterizer. Nothing is launched until Open.
func New(opts Options) *Rasterizer {
	if opts.Renderer == nil {
		opts.Renderer = ggrenderer.New()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	return &Rasterizer{opts: opts, logger: log.WithComponent("playwrightraster")}
}

// Open starts the Playwright driver, launches Chromium and opens a page.
func (r *Rasterizer) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.page != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runOpts := &playwright.RunOptions{Browsers: []string{"chromium"}}
	if r.opts.InstallBrowsers {
		r.logger.Debug("Installing Playwright driver and Chromium")
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("playwrightraster: install: %w", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("playwrightraster: start driver: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     []string{"--hide-scrollbars", "--force-color-profile=srgb", "--disable-gpu"},
	}
	if r.opts.ChromePath != "" {
		launch.ExecutablePath = playwright.String(r.opts.ChromePath)
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		pw.Stop()
		return fmt.Errorf("playwrightraster: launch: %w", err)
	}
	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return fmt.Errorf("playwrightraster: new page: %w", err)
	}

	r.pw, r.browser, r.page = pw, browser, page
	r.viewport = pipeline.Dimension{}
	r.logger.Debug("Chromium %s ready", browser.Version())
	return nil
}

// Rasterize sets svg as the page content and screenshots it with a transparent background.
func (r *Rasterizer) Rasterize(ctx context.Context, svg []byte, size pipeline.Dimension) (ports.Raster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.page == nil {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.viewport != size {
		if err := r.page.SetViewportSize(size.Width, size.Height); err != nil {
			return nil, fmt.Errorf("playwrightraster: viewport: %w", err)
		}
		r.viewport = size
	}
	if err := r.page.SetContent(Document(svg)); err != nil {
		return nil, fmt.Errorf("playwrightraster: set content: %w", err)
	}
	shot, err := r.page.Screenshot(playwright.PageScreenshotOptions{
		Type:           playwright.ScreenshotTypePng,
		OmitBackground: playwright.Bool(true),
		Clip: &playwright.Rect{
			Width:  float64(size.Width),
			Height: float64(size.Height),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("playwrightraster: screenshot: %w", err)
	}

	img, err := r.opts.Renderer.DecodeImage(shot, ports.FormatPNG)
	if err != nil {
		return nil, fmt.Errorf("playwrightraster: decode screenshot: %w", err)
	}
	if b := img.Bounds(); b.Dx() != size.Width || b.Dy() != size.Height {
		img = r.opts.Renderer.ResizeImage(img, size.Width, size.Height)
	}
	return &raster{img: img}, nil
}

// Close shuts down the page, the browser and the driver. It is safe to call more than once.
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pw == nil {
		return nil
	}
	var errs []error
	if err := r.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.pw.Stop(); err != nil {
		errs = append(errs, err)
	}
	r.pw, r.browser, r.page = nil, nil, nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("playwrightraster: close: %w", err)
	}
	return nil
}

// Document wraps svg in a margin-free HTML page with a transparent background.
func Document(svg []byte) string {
	return `<!DOCTYPE html><html><head><style>html,body{margin:0;padding:0;background:transparent;overflow:hidden}svg{display:block}</style></head><body>` +
		string(svg) + `</body></html>`
}

type raster struct {
	img image.Image
}

func (r *raster) Image() image.Image { return r.img }

func (r *raster) Release() { r.img = nil }

var _ ports.Rasterizer = (*Rasterizer)(nil)
