package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pricetracker.lib.transport")

// masks the obvious automation tells before any page script runs
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
`

// Browser is the heavy rendering transport. One Chrome process is shared
// across all calls, lazily launched and relaunched if it dies; every
// Fetch gets its own tab with cookies cleared so no state leaks between
// requests.
type Browser struct {
	headless bool
	timeout  time.Duration

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

func NewBrowser(headless bool, timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Browser{headless: headless, timeout: timeout}
}

// ensureLaunched returns a live shared browser context. Concurrent
// callers collapse into a single launch behind the mutex.
func (b *Browser) ensureLaunched() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil && b.browserCtx.Err() == nil {
		return b.browserCtx, nil
	}
	if b.browserCancel != nil {
		slog.Warn("headless browser disconnected, relaunching")
		b.browserCancel()
		b.allocCancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.WindowSize(1366, 768),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// force the process to actually start so launch errors surface here
	// instead of inside the first fetch
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	b.allocCancel = allocCancel
	slog.Info("headless browser launched", "headless", b.headless)
	return browserCtx, nil
}

func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCancel != nil {
		b.browserCancel()
		b.allocCancel()
		b.browserCtx = nil
		b.browserCancel = nil
		b.allocCancel = nil
	}
}

// Fetch renders the page in an isolated tab and returns the document
// after the wait condition is met. A single attempt, the fallback chain
// above already bounds retry cost.
func (b *Browser) Fetch(ctx context.Context, url string, opts FetchOptions) (string, error) {
	ctx, span := tracer.Start(ctx, "Browser:Fetch")
	defer span.End()

	sessionId, _ := random.String(8)
	slog.DebugContext(ctx, "heavy fetch", "url", url, "session", sessionId)

	shared, err := b.ensureLaunched()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "browser launch failed")
		return "", err
	}

	tabCtx, tabCancel := chromedp.NewContext(shared)
	defer tabCancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, b.timeout)
	defer timeoutCancel()

	settle := opts.Settle
	if settle <= 0 {
		settle = 3 * time.Second
	}

	var content string
	err = chromedp.Run(tabCtx,
		network.ClearBrowserCookies(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(url),
		b.waitAction(opts.WaitSelector, settle),
		chromedp.OuterHTML("html", &content, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return "", err
	}

	slog.DebugContext(ctx, "heavy fetch done",
		"url", url, "session", sessionId, "bytes", len(content))
	return content, nil
}

// waitAction waits for the target selector, falling back to a fixed
// settle delay when none is given or it never appears.
func (b *Browser) waitAction(selector string, settle time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if selector == "" {
			return chromedp.Sleep(settle).Do(ctx)
		}
		waitCtx, cancel := context.WithTimeout(ctx, settle)
		defer cancel()
		err := chromedp.WaitReady(selector, chromedp.ByQuery).Do(waitCtx)
		if err != nil && ctx.Err() == nil {
			// selector never showed up, give scripts the settle
			// window and extract whatever rendered
			return chromedp.Sleep(settle).Do(ctx)
		}
		return err
	})
}
