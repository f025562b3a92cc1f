package browser

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScope struct {
	clickable map[string]bool
	attempts  *[]string
	name      string
}

func (f fakeScope) WaitAndClick(xpath string, timeout time.Duration) error {
	*f.attempts = append(*f.attempts, f.name+":"+xpath)
	if f.clickable[xpath] {
		return nil
	}
	return errors.New("element not visible")
}

type fakeTarget struct {
	main        fakeScope
	frames      []fakeScope
	textTargets map[string]bool
	attempts    []string
	screenshots []string
}

func newFakeTarget() *fakeTarget {
	t := &fakeTarget{textTargets: map[string]bool{}}
	t.main = fakeScope{clickable: map[string]bool{}, attempts: &t.attempts, name: "main"}
	return t
}

func (t *fakeTarget) addFrame(name string, clickable map[string]bool) {
	t.frames = append(t.frames, fakeScope{clickable: clickable, attempts: &t.attempts, name: name})
}

func (t *fakeTarget) Main() Scope { return t.main }

func (t *fakeTarget) Frames() []Scope {
	scopes := make([]Scope, 0, len(t.frames))
	for _, fr := range t.frames {
		scopes = append(scopes, fr)
	}
	return scopes
}

func (t *fakeTarget) ClickText(text string, timeout time.Duration) error {
	t.attempts = append(t.attempts, "text:"+text)
	if t.textTargets[text] {
		return nil
	}
	return errors.New("no element with text")
}

func (t *fakeTarget) Screenshot(path string) error {
	t.screenshots = append(t.screenshots, path)
	return nil
}

func TestClickAnywhereFirstCandidateWins(t *testing.T) {
	target := newFakeTarget()
	target.main.clickable["//a[1]"] = true
	target.main.clickable["//a[2]"] = true
	target.addFrame("frame0", map[string]bool{"//a[1]": true})

	ok := ClickAnywhere(target, []string{"//a[1]", "//a[2]"}, time.Second, "debug")

	require.True(t, ok)
	// First candidate succeeds; no later candidate, frame or fallback is tried.
	assert.Equal(t, []string{"main://a[1]"}, target.attempts)
	assert.Empty(t, target.screenshots)
}

func TestClickAnywhereCandidateOrderInMainDocument(t *testing.T) {
	target := newFakeTarget()
	target.main.clickable["//a[2]"] = true

	ok := ClickAnywhere(target, []string{"//a[1]", "//a[2]"}, time.Second, "debug")

	require.True(t, ok)
	assert.Equal(t, []string{"main://a[1]", "main://a[2]"}, target.attempts)
}

func TestClickAnywhereFallsBackToFramesInOrder(t *testing.T) {
	target := newFakeTarget()
	target.addFrame("frame0", map[string]bool{})
	target.addFrame("frame1", map[string]bool{"//btn": true})
	target.addFrame("frame2", map[string]bool{"//btn": true})

	ok := ClickAnywhere(target, []string{"//btn"}, time.Second, "debug")

	require.True(t, ok)
	assert.Equal(t, []string{
		"main://btn",
		"frame0://btn",
		"frame1://btn",
	}, target.attempts)
}

func TestClickAnywhereTextFallback(t *testing.T) {
	target := newFakeTarget()
	target.addFrame("frame0", map[string]bool{})
	target.textTargets["Export ATS to Excel"] = true

	ok := ClickAnywhere(target, []string{"//btn"}, time.Second, "debug")

	require.True(t, ok)
	assert.Equal(t, "text:Export ATS to Excel", target.attempts[len(target.attempts)-1])
	assert.Empty(t, target.screenshots)
}

func TestClickAnywhereTotalFailureScreenshotsOnce(t *testing.T) {
	target := newFakeTarget()
	target.addFrame("frame0", map[string]bool{})

	ok := ClickAnywhere(target, []string{"//btn", "//span"}, time.Second, "debug_export_try1")

	require.False(t, ok)
	require.Len(t, target.screenshots, 1)
	assert.True(t, strings.HasPrefix(target.screenshots[0], "debug_export_try1_"))
	assert.True(t, strings.HasSuffix(target.screenshots[0], ".png"))
}

type failingScreenshotTarget struct {
	*fakeTarget
}

func (t failingScreenshotTarget) Screenshot(path string) error {
	return errors.New("page closed")
}

func TestClickAnywhereScreenshotFailureIsSwallowed(t *testing.T) {
	target := failingScreenshotTarget{newFakeTarget()}

	ok := ClickAnywhere(target, []string{"//btn"}, time.Second, "debug")

	assert.False(t, ok)
}

func TestClickAnywhereNoCandidates(t *testing.T) {
	target := newFakeTarget()

	ok := ClickAnywhere(target, nil, time.Second, filepath.Join(t.TempDir(), "debug"))

	assert.False(t, ok)
	require.Len(t, target.screenshots, 1)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Headless)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 1400, opts.ViewportWidth)
	assert.Equal(t, 900, opts.ViewportHeight)
}
