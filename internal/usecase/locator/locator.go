package locator

import (
	"context"
	"errors"
	"time"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultPollInterval = 100 * time.Millisecond
)

// SelectorSet is an ordered list of alternative XPath expressions for the same
// control. The first one that yields a usable element wins.
type SelectorSet []string

type FindOptions struct {
	Timeout          time.Duration
	RequireClickable bool
}

type Config struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:      defaultTimeout,
		PollInterval: defaultPollInterval,
	}
}

type Locator struct {
	browser output.BrowserPort
	logger  output.LoggerPort
	cfg     Config
}

func New(browser output.BrowserPort, logger output.LoggerPort, cfg Config) *Locator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Locator{
		browser: browser,
		logger:  logger.WithField("component", "locator"),
		cfg:     cfg,
	}
}

func (l *Locator) DefaultTimeout() time.Duration {
	return l.cfg.Timeout
}

// Find returns the first visible (and, if requested, enabled) element matched
// by any selector of the set. A zero timeout probes once.
func (l *Locator) Find(ctx context.Context, selectors SelectorSet, opts FindOptions) (entity.ElementHandle, bool) {
	var found entity.ElementHandle
	l.poll(ctx, opts.Timeout, func() bool {
		for _, sel := range selectors {
			els, err := l.browser.FindElements(ctx, nil, sel)
			if err != nil {
				l.logger.Debug("Selector lookup failed", "selector", sel, "error", err)
				continue
			}
			for _, el := range els {
				if l.usable(ctx, el, opts.RequireClickable) {
					found = el
					return true
				}
			}
		}
		return false
	})
	return found, found != nil
}

// Exists is Find with a single probe and no clickability requirement.
func (l *Locator) Exists(ctx context.Context, selectors SelectorSet) bool {
	_, ok := l.Find(ctx, selectors, FindOptions{})
	return ok
}

// FindAll waits until at least one element matches and returns all matches in
// document order. It returns an empty slice on timeout.
func (l *Locator) FindAll(ctx context.Context, selector string, timeout time.Duration) []entity.ElementHandle {
	var found []entity.ElementHandle
	l.poll(ctx, timeout, func() bool {
		els, err := l.browser.FindElements(ctx, nil, selector)
		if err != nil {
			l.logger.Debug("Selector lookup failed", "selector", selector, "error", err)
			return false
		}
		found = els
		return len(els) > 0
	})
	if found == nil {
		return []entity.ElementHandle{}
	}
	return found
}

// Within returns the matches of a relative XPath under scope without waiting.
func (l *Locator) Within(ctx context.Context, scope entity.ElementHandle, selector string) []entity.ElementHandle {
	els, err := l.browser.FindElements(ctx, scope, selector)
	if err != nil {
		l.logger.Debug("Scoped lookup failed", "selector", selector, "scope", describe(scope), "error", err)
		return []entity.ElementHandle{}
	}
	return els
}

// FirstWithin returns the first match of any selector under scope.
func (l *Locator) FirstWithin(ctx context.Context, scope entity.ElementHandle, selectors SelectorSet) (entity.ElementHandle, bool) {
	for _, sel := range selectors {
		if els := l.Within(ctx, scope, sel); len(els) > 0 {
			return els[0], true
		}
	}
	return nil, false
}

// Click tries a native click and falls back to a script click.
func (l *Locator) Click(ctx context.Context, el entity.ElementHandle) bool {
	return l.ClickErr(ctx, el) == nil
}

// ClickErr is Click that keeps the last error, so callers can tell a stale
// handle from a plain refusal.
func (l *Locator) ClickErr(ctx context.Context, el entity.ElementHandle) error {
	if el == nil {
		return entity.ErrElementNotFound
	}
	nativeErr := l.browser.Click(ctx, el)
	if nativeErr == nil {
		return nil
	}
	if errors.Is(nativeErr, entity.ErrDriverFatal) {
		return nativeErr
	}
	l.logger.Debug("Native click failed, trying script click", "element", el.Describe(), "error", nativeErr)

	scriptErr := l.browser.ScriptClick(ctx, el)
	if scriptErr == nil {
		return nil
	}
	l.logger.Warn("Click failed", "element", el.Describe(), "native_error", nativeErr, "script_error", scriptErr)
	return errors.Join(nativeErr, scriptErr)
}

func (l *Locator) usable(ctx context.Context, el entity.ElementHandle, requireClickable bool) bool {
	visible, err := l.browser.Visible(ctx, el)
	if err != nil || !visible {
		return false
	}
	if !requireClickable {
		return true
	}
	if _, disabled, err := l.browser.Attribute(ctx, el, "disabled"); err != nil || disabled {
		return false
	}
	if v, ok, _ := l.browser.Attribute(ctx, el, "aria-disabled"); ok && v == "true" {
		return false
	}
	return true
}

func (l *Locator) poll(ctx context.Context, timeout time.Duration, probe func() bool) {
	deadline := time.Now().Add(timeout)
	for {
		if probe() {
			return
		}
		if timeout <= 0 || !time.Now().Before(deadline) {
			return
		}
		wait := l.cfg.PollInterval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func describe(el entity.ElementHandle) string {
	if el == nil {
		return "document"
	}
	return el.Describe()
}
