// Package portal drives the RepSpark web portal: conditional login, the
// Products navigation and the Excel export, returning the downloaded workbook
// path for the sync stage.
package portal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/dporto/repspark-sync/internal/browser"
	"github.com/dporto/repspark-sync/internal/config"
)

// Pause after the Products view settles before probing for the export
// control; the filter menu renders slightly after network idle.
const productsSettleDelay = 800 * time.Millisecond

type Service struct {
	cfg    config.PortalConfig
	bopts  *browser.Options
	logger *slog.Logger
}

func New(cfg config.PortalConfig, bopts *browser.Options) *Service {
	return &Service{
		cfg:    cfg,
		bopts:  bopts,
		logger: slog.Default().With("component", "portal"),
	}
}

// FetchExport runs the whole portal flow in a dedicated browser session:
// navigate, log in when the login form is detected, open Products and export.
// The browser is closed before returning regardless of outcome. The returned
// attempts count is how many export tries were spent.
func (s *Service) FetchExport(ctx context.Context) (path string, attempts int, err error) {
	if err := os.MkdirAll(s.cfg.DownloadDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create download dir: %w", err)
	}

	b, err := browser.New(s.bopts)
	if err != nil {
		return "", 0, fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			s.logger.Warn("browser close reported errors", "error", cerr)
		}
	}()

	page, err := b.NewPage()
	if err != nil {
		return "", 0, err
	}

	s.logger.Info("navigating to portal", "url", s.cfg.URL)
	if err := b.Navigate(page, s.cfg.URL, s.cfg.NavTimeout, s.cfg.IdleTimeout); err != nil {
		return "", 0, err
	}

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	if s.needsLogin(page) {
		s.logger.Info("login form detected, signing in")
		if err := s.login(page); err != nil {
			return "", 0, fmt.Errorf("login failed: %w", err)
		}
		browser.WaitIdle(page, s.cfg.IdleTimeout)
		s.logger.Info("login submitted")
	}

	s.logger.Info("opening products view")
	if !browser.ClickAnywhere(browser.NewPageTarget(page), []string{s.cfg.ProductsXPath}, s.cfg.ClickTimeout, "debug_products") {
		return "", 0, fmt.Errorf("products navigation not found by any locator")
	}
	browser.WaitIdle(page, s.cfg.IdleTimeout)
	page.WaitForTimeout(float64(productsSettleDelay.Milliseconds()))

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	s.logger.Info("exporting availability workbook")
	path, attempts, err = retryExport(s.cfg.ExportRetries, s.cfg.ExportRetryPause, time.Sleep, func(attempt int) (string, error) {
		return s.exportAttempt(page, attempt)
	})
	if err != nil {
		return "", attempts, err
	}

	return path, attempts, nil
}

// needsLogin inspects the rendered document for the login form. Failing to
// read the document falls back to the URL check inside loginRequired.
func (s *Service) needsLogin(page playwright.Page) bool {
	html, err := page.Content()
	if err != nil {
		s.logger.Debug("failed to read page content", "error", err)
		html = ""
	}
	return loginRequired(html, page.URL())
}
