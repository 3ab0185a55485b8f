// Package chromeraster rasterizes SVG frames in a headless Chrome tab driven by chromedp.
package chromeraster

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/user/lottiemp4/pkg/adapters/ggrenderer"
	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

var (
	// ErrChromeNotFound is returned by Open when no Chrome executable can be located.
	ErrChromeNotFound = errors.New("chromeraster: chrome not found: install Chrome/Chromium, set CHROME_PATH, or use --chrome-path")

	// ErrNotOpen is returned when Rasterize is called outside Open/Close.
	ErrNotOpen = errors.New("chromeraster: render surface not open")
)

// Options configures the rasterizer.
type Options struct {
	ChromePath string
	// Headful shows the browser window. Useful only when debugging.
	Headful  bool
	Renderer ports.Renderer
	Logger   ports.Logger
}

// Rasterizer implements ports.Rasterizer with one browser tab per conversion.
type Rasterizer struct {
	opts   Options
	logger ports.Logger

	mu          sync.Mutex
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	viewport    pipeline.Dimension
}

// New creates a Chrome rasterizer. Nothing is launched until Open.
func New(opts Options) *Rasterizer {
	if opts.Renderer == nil {
		opts.Renderer = ggrenderer.New()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	return &Rasterizer{opts: opts, logger: log.WithComponent("chromeraster")}
}

// allocatorOptions returns the launch flags for a headless, sandbox-free browser
// that works inside containers and CI.
func allocatorOptions(chromePath string, headful bool) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.ExecPath(chromePath),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("force-color-profile", "srgb"),
	}
	if !headful {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	return opts
}

// Open launches the browser and opens the tab used as the render surface.
// The surface lives until Close, independent of ctx.
func (r *Rasterizer) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tabCtx != nil {
		return nil
	}

	chromePath := ResolveChromePath(r.opts.ChromePath)
	if chromePath == "" {
		return ErrChromeNotFound
	}
	r.logger.Debug("Launching browser: %s", chromePath)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(chromePath, r.opts.Headful)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser.
	if err := r.run(ctx, tabCtx,
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{R: 0, G: 0, B: 0, A: 0}),
	); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("chromeraster: launch: %w", err)
	}

	r.allocCancel = allocCancel
	r.tabCtx = tabCtx
	r.tabCancel = tabCancel
	r.viewport = pipeline.Dimension{}
	return nil
}

// run executes actions on the tab, aborting when either ctx or the tab is done.
func (r *Rasterizer) run(ctx, tabCtx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(runCtx, actions...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Rasterize loads svg as the tab's document and captures the viewport.
func (r *Rasterizer) Rasterize(ctx context.Context, svg []byte, size pipeline.Dimension) (ports.Raster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tabCtx == nil {
		return nil, ErrNotOpen
	}

	var actions []chromedp.Action
	if r.viewport != size {
		actions = append(actions,
			emulation.SetDeviceMetricsOverride(int64(size.Width), int64(size.Height), 1, false),
		)
	}

	var shot []byte
	actions = append(actions,
		chromedp.Navigate(DataURL(svg)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			shot, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithClip(&page.Viewport{Width: float64(size.Width), Height: float64(size.Height), Scale: 1}).
				WithFromSurface(true).
				Do(ctx)
			return err
		}),
	)
	if err := r.run(ctx, r.tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("chromeraster: capture: %w", err)
	}
	r.viewport = size

	img, err := r.opts.Renderer.DecodeImage(shot, ports.FormatPNG)
	if err != nil {
		return nil, fmt.Errorf("chromeraster: decode screenshot: %w", err)
	}
	if b := img.Bounds(); b.Dx() != size.Width || b.Dy() != size.Height {
		r.logger.Debug("Screenshot is %dx%d, resizing to %s", b.Dx(), b.Dy(), size)
		img = r.opts.Renderer.ResizeImage(img, size.Width, size.Height)
	}
	return &raster{img: img}, nil
}

// Close closes the tab and shuts the browser down. It is safe to call more than once.
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tabCtx == nil {
		return nil
	}
	r.tabCancel()
	r.allocCancel()
	r.tabCtx, r.tabCancel, r.allocCancel = nil, nil, nil
	r.logger.Debug("Browser closed")
	return nil
}

// DataURL encodes svg as a base64 data URL.
func DataURL(svg []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
}

type raster struct {
	img image.Image
}

func (r *raster) Image() image.Image { return r.img }

func (r *raster) Release() { r.img = nil }

var _ ports.Rasterizer = (*Rasterizer)(nil)
