package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderedClient downloads pages through a headless browser, for sources
// that assemble their listing or article markup with JavaScript.
type RenderedClient struct {
	timeout   time.Duration
	userAgent string
}

// NewRenderedClient builds a headless-browser fetcher.
func NewRenderedClient(timeout time.Duration) *RenderedClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RenderedClient{timeout: timeout, userAgent: defaultUserAgent}
}

// Get navigates to the page, waits for the body to be ready and returns
// the rendered markup.
func (c *RenderedClient) Get(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(c.userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}
