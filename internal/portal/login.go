package portal

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

const fieldFillTimeout = 10 * time.Second
const submitTimeout = 10 * time.Second

// Selector strategies for the login form, tried in order. The portal has
// shipped the form with and without name attributes, so a single selector is
// not reliable.
var emailSelectors = []string{
	`input[name="email"]`,
	`input[type="email"]`,
	`input[placeholder*="Email" i]`,
}

var passwordSelectors = []string{
	`input[name="password"]`,
	`input[type="password"]`,
	`input[placeholder*="Password" i]`,
}

// loginRequired decides whether the rendered page is the login form: an
// Email-labeled input means yes. When the document cannot be inspected, the
// URL containing "login" is used as a weaker signal.
func loginRequired(html, url string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if html == "" || err != nil {
		return strings.Contains(strings.ToLower(url), "login")
	}

	found := false
	doc.Find("input").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, attr := range []string{"placeholder", "name", "aria-label"} {
			if v, ok := sel.Attr(attr); ok && strings.Contains(strings.ToLower(v), "email") {
				found = true
				return false
			}
		}
		if v, ok := sel.Attr("type"); ok && v == "email" {
			found = true
			return false
		}
		return true
	})

	return found
}

// fieldFiller fills the element matched by a selector with a value, bounded
// by a timeout. Failures are expected and drive the next strategy.
type fieldFiller interface {
	Fill(selector, value string, timeout time.Duration) error
}

// fillFirst tries each selector strategy in order and reports whether any of
// them filled the field.
func fillFirst(f fieldFiller, selectors []string, value string, timeout time.Duration) bool {
	for _, sel := range selectors {
		if err := f.Fill(sel, value, timeout); err == nil {
			return true
		}
	}
	return false
}

type pageFiller struct {
	page playwright.Page
}

func (f pageFiller) Fill(selector, value string, timeout time.Duration) error {
	return f.page.Locator(selector).Fill(value, playwright.LocatorFillOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// login fills the credentials and submits the form. Either field exhausting
// all of its strategies is fatal; login cannot proceed half-filled.
func (s *Service) login(page playwright.Page) error {
	filler := pageFiller{page: page}

	if !fillFirst(filler, emailSelectors, s.cfg.Email, fieldFillTimeout) {
		return fmt.Errorf("email field not found by any selector strategy")
	}

	if !fillFirst(filler, passwordSelectors, s.cfg.Password, fieldFillTimeout) {
		return fmt.Errorf("password field not found by any selector strategy")
	}

	err := page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
		Name: "Sign in",
	}).Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(submitTimeout.Milliseconds())),
	})
	if err != nil {
		s.logger.Debug("sign-in button not clickable, submitting via keyboard", "error", err)
		if kerr := page.Keyboard().Press("Enter"); kerr != nil {
			return fmt.Errorf("failed to submit login form: %w", kerr)
		}
	}

	return nil
}
