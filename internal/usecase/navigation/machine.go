package navigation

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/usecase/locator"
)

type action struct {
	name      string
	state     entity.NavigationState
	outcome   entity.NavigationOutcome
	selectors locator.SelectorSet
}

// Machine decides, once per page, whether to advance, submit, stop as
// completed or stop as stuck. Completed is terminal until Reset.
type Machine struct {
	browser output.BrowserPort
	locator *locator.Locator
	logger  output.LoggerPort
	cfg     Config

	state           entity.NavigationState
	submitAttempted bool
}

func New(browser output.BrowserPort, loc *locator.Locator, logger output.LoggerPort, cfg Config) *Machine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	return &Machine{
		browser: browser,
		locator: loc,
		logger:  logger.WithField("component", "navigation"),
		cfg:     cfg,
		state:   entity.StateAwaitingAction,
	}
}

func (m *Machine) State() entity.NavigationState {
	return m.state
}

// Reset prepares the machine for a new run.
func (m *Machine) Reset() {
	m.state = entity.StateAwaitingAction
	m.submitAttempted = false
}

// HasSubmit reports whether a submit affordance shows up within the probe timeout.
func (m *Machine) HasSubmit(ctx context.Context) bool {
	_, ok := m.locator.Find(ctx, m.cfg.Submit, locator.FindOptions{Timeout: m.cfg.ProbeTimeout})
	return ok
}

// Step runs one navigation cycle. A Stuck outcome always comes with an error
// wrapping entity.ErrNavigationStuck or a fatal driver error.
func (m *Machine) Step(ctx context.Context) (entity.NavigationOutcome, error) {
	if m.state == entity.StateCompleted {
		return entity.OutcomeComplete, nil
	}
	if err := ctx.Err(); err != nil {
		return entity.OutcomeStuck, err
	}

	if m.isComplete(ctx) {
		m.logger.Info("Form completion detected")
		m.state = entity.StateCompleted
		return entity.OutcomeComplete, nil
	}

	all := append(append(locator.SelectorSet{}, m.cfg.Submit...), m.cfg.Advance...)
	if _, ok := m.locator.Find(ctx, all, locator.FindOptions{Timeout: m.cfg.ProbeTimeout}); !ok {
		if m.submitAttempted {
			m.state = entity.StateCompleted
			return entity.OutcomeComplete, nil
		}
		m.state = entity.StateStuck
		return entity.OutcomeStuck, fmt.Errorf("no advance or submit control on page: %w", entity.ErrNavigationStuck)
	}

	// отправка важнее перехода: на последней странице бывают обе кнопки
	if m.locator.Exists(ctx, m.cfg.Submit) {
		return m.act(ctx, action{"submit", entity.StateSubmitting, entity.OutcomeSubmit, m.cfg.Submit})
	}
	return m.act(ctx, action{"advance", entity.StateAdvancing, entity.OutcomeAdvance, m.cfg.Advance})
}

func (m *Machine) act(ctx context.Context, a action) (entity.NavigationOutcome, error) {
	m.state = a.state
	log := m.logger.WithField("action", a.name)

	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		err := m.attempt(ctx, a)
		if err == nil {
			m.state = entity.StateAwaitingAction
			log.Info("Navigation succeeded", "attempt", attempt)
			return a.outcome, nil
		}
		if errors.Is(err, entity.ErrDriverFatal) || errors.Is(err, entity.ErrNavigationStuck) || ctx.Err() != nil {
			m.state = entity.StateStuck
			return entity.OutcomeStuck, err
		}
		log.Warn("Navigation attempt failed", "attempt", attempt, "max_attempts", m.cfg.MaxAttempts, "error", err)

		if attempt < m.cfg.MaxAttempts {
			if err := sleep(ctx, m.cfg.RetryDelay); err != nil {
				m.state = entity.StateStuck
				return entity.OutcomeStuck, err
			}
		}
	}

	m.state = entity.StateStuck
	return entity.OutcomeStuck, fmt.Errorf("%s failed after %d attempts: %w", a.name, m.cfg.MaxAttempts, entity.ErrNavigationStuck)
}

func (m *Machine) attempt(ctx context.Context, a action) error {
	el, ok := m.locator.Find(ctx, a.selectors, locator.FindOptions{RequireClickable: true})
	if !ok {
		return fmt.Errorf("%s control not clickable: %w", a.name, entity.ErrElementNotFound)
	}

	before := m.fingerprint(ctx)
	if a.outcome == entity.OutcomeSubmit {
		m.submitAttempted = true
	}
	if err := m.locator.ClickErr(ctx, el); err != nil {
		return err
	}

	if !m.waitTransition(ctx, before) {
		m.logger.Debug("No transition evidence before timeout", "action", a.name)
	}

	if a.outcome == entity.OutcomeSubmit {
		return m.verifySubmit(ctx)
	}
	return nil
}

// verifySubmit treats a submit as failed if navigation controls survive it.
// The click already landed, so the failure is final: clicking again could
// send the response twice.
func (m *Machine) verifySubmit(ctx context.Context) error {
	if err := sleep(ctx, m.cfg.SubmitSettle); err != nil {
		return err
	}
	if m.locator.Exists(ctx, m.cfg.Submit) || m.locator.Exists(ctx, m.cfg.Advance) {
		return fmt.Errorf("submit did not take effect, navigation controls still present: %w", entity.ErrNavigationStuck)
	}
	return nil
}

func (m *Machine) isComplete(ctx context.Context) bool {
	if m.locator.Exists(ctx, m.cfg.Completion) {
		return true
	}
	if m.locator.Exists(ctx, m.cfg.Submit) || m.locator.Exists(ctx, m.cfg.Advance) {
		return false
	}
	if m.submitAttempted {
		return true
	}

	source, err := m.browser.PageSource(ctx)
	if err != nil {
		m.logger.Debug("Page source unavailable for completion check", "error", err)
		return false
	}
	text := strings.ToLower(VisibleText(source))
	for _, phrase := range m.cfg.CompletionPhrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// waitTransition polls until the loading indicator is gone and the page has
// changed, or the transition timeout passes.
func (m *Machine) waitTransition(ctx context.Context, before uint64) bool {
	deadline := time.Now().Add(m.cfg.TransitionTimeout)
	for {
		if !m.locator.Exists(ctx, m.cfg.Loading) && m.fingerprint(ctx) != before {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		if err := sleep(ctx, m.cfg.PollInterval); err != nil {
			return false
		}
	}
}

func (m *Machine) fingerprint(ctx context.Context) uint64 {
	source, err := m.browser.PageSource(ctx)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	return h.Sum64()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
