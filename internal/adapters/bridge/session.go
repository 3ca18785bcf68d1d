package bridge

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// GameURL is the page every session opens
const GameURL = "https://shippingmanager.cc"

// Browser names accepted by SessionOptions.Browser
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebKit   = "webkit"
)

// ScriptRunner executes scripts and simple form interactions in the game page
type ScriptRunner interface {
	Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
}

// Viewport represents the browser window dimensions
type Viewport struct {
	Width  int
	Height int
}

// WindowPosition places a headed browser window on screen
type WindowPosition struct {
	X int
	Y int
}

// SessionOptions configures the browser session
type SessionOptions struct {
	// Browser preference: chromium, firefox or webkit. Empty means try each in that order.
	Browser string

	Headless bool
	Viewport Viewport
	Position WindowPosition

	// URL to open, defaults to GameURL
	URL string

	// ScriptTimeout bounds every evaluation
	ScriptTimeout time.Duration

	// SkipInstall assumes driver and browsers are already installed
	SkipInstall bool
}

// DefaultSessionOptions opens a visible 1100x860 window next to the terminal
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Viewport:      Viewport{Width: 1100, Height: 860},
		Position:      WindowPosition{X: 380, Y: 0},
		URL:           GameURL,
		ScriptTimeout: 30 * time.Second,
	}
}

// Session owns the Playwright driver, one browser and the game page
type Session struct {
	mu      sync.RWMutex
	opts    SessionOptions
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	name    string

	startedAt time.Time
}

// NewSession creates an unstarted session
func NewSession(opts SessionOptions) *Session {
	defaults := DefaultSessionOptions()
	if opts.Viewport.Width == 0 || opts.Viewport.Height == 0 {
		opts.Viewport = defaults.Viewport
	}
	if opts.URL == "" {
		opts.URL = defaults.URL
	}
	if opts.ScriptTimeout <= 0 {
		opts.ScriptTimeout = defaults.ScriptTimeout
	}
	return &Session{opts: opts}
}

// Start installs the driver if needed, launches the first available browser
// and navigates to the game. The operator logs in through that window.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		return nil
	}

	// Keep driver output away from the terminal UI
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if !s.opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	var launchErrs []error
	for _, name := range s.candidates() {
		browser, err := s.launch(pw, name)
		if err != nil {
			launchErrs = append(launchErrs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := s.open(browser); err != nil {
			_ = browser.Close()
			launchErrs = append(launchErrs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		s.pw = pw
		s.name = name
		s.startedAt = time.Now()
		return nil
	}

	_ = pw.Stop()
	return fmt.Errorf("no browser could be launched: %v", launchErrs)
}

func (s *Session) candidates() []string {
	if s.opts.Browser != "" {
		return []string{s.opts.Browser}
	}
	return []string{BrowserChromium, BrowserFirefox, BrowserWebKit}
}

func (s *Session) launch(pw *playwright.Playwright, name string) (playwright.Browser, error) {
	headless := s.opts.Headless
	launchOpts := playwright.BrowserTypeLaunchOptions{Headless: &headless}

	switch name {
	case BrowserChromium:
		launchOpts.Args = []string{
			"--disable-blink-features=AutomationControlled",
			fmt.Sprintf("--window-position=%d,%d", s.opts.Position.X, s.opts.Position.Y),
			fmt.Sprintf("--window-size=%d,%d", s.opts.Viewport.Width, s.opts.Viewport.Height),
		}
		return pw.Chromium.Launch(launchOpts)
	case BrowserFirefox:
		launchOpts.Args = []string{
			fmt.Sprintf("--width=%d", s.opts.Viewport.Width),
			fmt.Sprintf("--height=%d", s.opts.Viewport.Height),
		}
		return pw.Firefox.Launch(launchOpts)
	case BrowserWebKit:
		return pw.WebKit.Launch(launchOpts)
	default:
		return nil, fmt.Errorf("unsupported browser %q", name)
	}
}

func (s *Session) open(browser playwright.Browser) error {
	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  s.opts.Viewport.Width,
			Height: s.opts.Viewport.Height,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(s.opts.ScriptTimeout.Milliseconds()))

	waitUntil := playwright.WaitUntilState("domcontentloaded")
	if _, err := page.Goto(s.opts.URL, playwright.PageGotoOptions{WaitUntil: &waitUntil}); err != nil {
		_ = bctx.Close()
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.browser = browser
	s.context = bctx
	s.page = page
	return nil
}

// BrowserName returns the browser that was launched, empty before Start
func (s *Session) BrowserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Close releases the page, the browser and the driver
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page == nil {
		return nil
	}
	// Ignore errors, continue cleanup
	_ = s.page.Close()
	_ = s.context.Close()
	_ = s.browser.Close()
	err := s.pw.Stop()

	s.page, s.context, s.browser, s.pw = nil, nil, nil, nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

func (s *Session) currentPage() (playwright.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.page == nil {
		return nil, fmt.Errorf("browser session not started")
	}
	return s.page, nil
}

// Evaluate runs script in the page with arg as its single argument. The
// call returns when the script settles, the timeout passes or ctx ends.
func (s *Session) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	page, err := s.currentPage()
	if err != nil {
		return nil, err
	}

	return s.await(ctx, func() (interface{}, error) {
		if arg == nil {
			return page.Evaluate(script)
		}
		return page.Evaluate(script, arg)
	})
}

// Fill types value into the element matching selector
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	page, err := s.currentPage()
	if err != nil {
		return err
	}
	_, err = s.await(ctx, func() (interface{}, error) {
		return nil, page.Fill(selector, value)
	})
	return err
}

// Click clicks the element matching selector
func (s *Session) Click(ctx context.Context, selector string) error {
	page, err := s.currentPage()
	if err != nil {
		return err
	}
	_, err = s.await(ctx, func() (interface{}, error) {
		return nil, page.Click(selector)
	})
	return err
}

type evalResult struct {
	value interface{}
	err   error
}

func (s *Session) await(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ScriptTimeout)
	defer cancel()

	done := make(chan evalResult, 1)
	go func() {
		v, err := fn()
		done <- evalResult{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
