package browser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// exportFallbackText is the last-resort click target. It is deliberately not
// part of the configurable candidate list; the portal has always rendered the
// export action with this label even when every selector above it changed.
const exportFallbackText = "Export ATS to Excel"

const scrollTimeout = 3 * time.Second
const textFallbackTimeout = 3 * time.Second

// Scope is one element tree (the main document or an embedded frame) that can
// be searched for an XPath candidate and clicked. Errors are expected and
// drive fallback; implementations must not panic.
type Scope interface {
	// WaitAndClick waits for an element matching xpath to become visible,
	// scrolls it into view and clicks it.
	WaitAndClick(xpath string, timeout time.Duration) error
}

// Target is the page-level view the resilient locator operates on.
type Target interface {
	Main() Scope
	Frames() []Scope
	ClickText(text string, timeout time.Duration) error
	Screenshot(path string) error
}

// ClickAnywhere tries each XPath candidate in order against the main document,
// then against every frame in enumeration order, then falls back to a
// text-based click. The first success short-circuits everything later. On
// total failure it saves a full-page screenshot named
// "<debugPrefix>_<unix-ts>.png" (best effort) and returns false.
func ClickAnywhere(t Target, xpaths []string, timeout time.Duration, debugPrefix string) bool {
	logger := slog.Default().With("component", "locator")

	for _, xp := range xpaths {
		if err := t.Main().WaitAndClick(xp, timeout); err == nil {
			logger.Debug("clicked in main document", "xpath", xp)
			return true
		}
	}

	for i, fr := range t.Frames() {
		for _, xp := range xpaths {
			if err := fr.WaitAndClick(xp, timeout); err == nil {
				logger.Debug("clicked in frame", "frame", i, "xpath", xp)
				return true
			}
		}
	}

	if err := t.ClickText(exportFallbackText, textFallbackTimeout); err == nil {
		logger.Debug("clicked via text fallback", "text", exportFallbackText)
		return true
	}

	path := fmt.Sprintf("%s_%d.png", debugPrefix, time.Now().Unix())
	if err := t.Screenshot(path); err != nil {
		logger.Warn("failed to save debug screenshot", "path", path, "error", err)
	} else {
		logger.Info("saved debug screenshot", "path", path)
	}

	return false
}

// PageTarget adapts a playwright page to the Target interface.
type PageTarget struct {
	page playwright.Page
}

func NewPageTarget(page playwright.Page) *PageTarget {
	return &PageTarget{page: page}
}

func (t *PageTarget) Main() Scope {
	return pageScope{page: t.page}
}

func (t *PageTarget) Frames() []Scope {
	frames := t.page.Frames()
	scopes := make([]Scope, 0, len(frames))
	for _, fr := range frames {
		scopes = append(scopes, frameScope{frame: fr})
	}
	return scopes
}

func (t *PageTarget) ClickText(text string, timeout time.Duration) error {
	return t.page.GetByText(text, playwright.PageGetByTextOptions{
		Exact: playwright.Bool(false),
	}).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (t *PageTarget) Screenshot(path string) error {
	_, err := t.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

type pageScope struct {
	page playwright.Page
}

func (s pageScope) WaitAndClick(xpath string, timeout time.Duration) error {
	sel := "xpath=" + xpath

	_, err := s.page.WaitForSelector(sel, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("element not visible: %w", err)
	}

	return scrollAndClick(s.page.Locator(sel), timeout)
}

type frameScope struct {
	frame playwright.Frame
}

func (s frameScope) WaitAndClick(xpath string, timeout time.Duration) error {
	sel := "xpath=" + xpath

	_, err := s.frame.WaitForSelector(sel, playwright.FrameWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("element not visible: %w", err)
	}

	return scrollAndClick(s.frame.Locator(sel), timeout)
}

func scrollAndClick(loc playwright.Locator, timeout time.Duration) error {
	if err := loc.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(float64(scrollTimeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("scroll into view failed: %w", err)
	}

	if err := loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	return nil
}
