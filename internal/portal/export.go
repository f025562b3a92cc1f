package portal

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/dporto/repspark-sync/internal/browser"
)

// exportAttempt is one export try: click the control, await the download and
// persist it. Returns the saved file path.
type exportAttempt func(attempt int) (string, error)

// retryExport runs try up to maxAttempts times, pausing between failures.
// It returns the saved path of the first successful attempt together with the
// number of attempts spent.
func retryExport(maxAttempts int, pause time.Duration, sleep func(time.Duration), try exportAttempt) (string, int, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		path, err := try(attempt)
		if err == nil {
			return path, attempt, nil
		}

		lastErr = err
		if attempt < maxAttempts {
			sleep(pause)
		}
	}

	return "", maxAttempts, fmt.Errorf("export failed after %d attempts: %w", maxAttempts, lastErr)
}

func (s *Service) exportAttempt(page playwright.Page, attempt int) (string, error) {
	s.logger.Info("triggering export", "attempt", attempt)

	xpaths := []string{s.cfg.ExportIDXPath, s.cfg.ExportFBXPath}
	debugPrefix := fmt.Sprintf("debug_export_try%d", attempt)

	download, err := page.ExpectDownload(func() error {
		if !browser.ClickAnywhere(browser.NewPageTarget(page), xpaths, s.cfg.ClickTimeout, debugPrefix) {
			return fmt.Errorf("export control not found by any locator")
		}
		return nil
	}, playwright.PageExpectDownloadOptions{
		Timeout: playwright.Float(float64(s.cfg.DownloadTimeout.Milliseconds())),
	})
	if err != nil {
		return "", fmt.Errorf("download did not start: %w", err)
	}

	filename := download.SuggestedFilename()
	if filename == "" {
		filename = fmt.Sprintf("Availability_%d.xlsx", time.Now().Unix())
	}

	path := filepath.Join(s.cfg.DownloadDir, filename)
	if err := download.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save download to %s: %w", path, err)
	}

	s.logger.Info("download saved", "path", path, "attempt", attempt)
	return path, nil
}
