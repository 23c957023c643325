package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/usecase/locator"

	"github.com/google/uuid"
)

const (
	defaultProximityThreshold = 50.0
	defaultLabelTimeout       = 5 * time.Second
	defaultOptionTimeout      = 3 * time.Second
)

type Config struct {
	// ProximityThreshold is the max vertical distance, in pixels, between a
	// loose radio/checkbox and its predecessor for both to share a question.
	ProximityThreshold float64
	LabelTimeout       time.Duration
	OptionTimeout      time.Duration
	PlaceholderOptions []string
	Selectors          Selectors
}

func DefaultConfig() Config {
	return Config{
		ProximityThreshold: defaultProximityThreshold,
		LabelTimeout:       defaultLabelTimeout,
		OptionTimeout:      defaultOptionTimeout,
		PlaceholderOptions: []string{"Choose"},
		Selectors:          DefaultSelectors(),
	}
}

type Classifier struct {
	browser output.BrowserPort
	locator *locator.Locator
	logger  output.LoggerPort
	cfg     Config
}

func New(browser output.BrowserPort, loc *locator.Locator, logger output.LoggerPort, cfg Config) *Classifier {
	if cfg.ProximityThreshold <= 0 {
		cfg.ProximityThreshold = defaultProximityThreshold
	}
	if cfg.OptionTimeout <= 0 {
		cfg.OptionTimeout = defaultOptionTimeout
	}
	return &Classifier{
		browser: browser,
		locator: loc,
		logger:  logger.WithField("component", "classifier"),
		cfg:     cfg,
	}
}

// Extract turns the current page into questions in page order. It fails only
// when the page itself cannot be read; a broken question is logged and skipped.
func (c *Classifier) Extract(ctx context.Context) ([]*entity.Question, error) {
	if _, err := c.browser.PageSource(ctx); err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	questions := c.extractLabeled(ctx)
	if len(questions) > 0 {
		c.logger.Info("Questions extracted", "count", len(questions), "path", "labels")
		return questions, nil
	}

	c.logger.Debug("Label scan found nothing, scanning raw controls")
	questions = c.extractRaw(ctx)
	c.logger.Info("Questions extracted", "count", len(questions), "path", "raw")
	return questions, nil
}

func (c *Classifier) extractLabeled(ctx context.Context) []*entity.Question {
	labelSel, labels := c.findLabels(ctx)
	questions := make([]*entity.Question, 0, len(labels))

	for i, label := range labels {
		q, err := c.fromLabel(ctx, label)
		if err != nil {
			if errors.Is(err, entity.ErrDriverFatal) {
				c.logger.Error("Driver failed during extraction", "index", i, "error", err)
				return questions
			}
			c.logger.Warn("Skipping question", "index", i, "error", err)
			continue
		}
		q.Anchor = entity.Anchor{XPath: labelSel, Ordinal: i, Source: entity.AnchorLabel}
		questions = append(questions, q)
	}
	return questions
}

func (c *Classifier) findLabels(ctx context.Context) (string, []entity.ElementHandle) {
	sel := c.cfg.Selectors.Labels
	if _, ok := c.locator.Find(ctx, sel, locator.FindOptions{Timeout: c.cfg.LabelTimeout}); !ok {
		return "", nil
	}
	for _, s := range sel {
		if els := c.locator.Within(ctx, nil, s); len(els) > 0 {
			return s, els
		}
	}
	return "", nil
}

func (c *Classifier) fromLabel(ctx context.Context, label entity.ElementHandle) (*entity.Question, error) {
	raw, err := c.browser.Text(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("label text: %w", err)
	}
	text, asterisk := cleanLabel(raw)
	if text == "" {
		return nil, fmt.Errorf("empty label on %s", label.Describe())
	}

	container, ok := c.locator.FirstWithin(ctx, label, c.cfg.Selectors.Containers)
	if !ok {
		container = label
	}

	q := &entity.Question{
		ID:       uuid.NewString(),
		Label:    text,
		Required: asterisk || c.hasRequiredMarker(ctx, container),
	}
	if err := c.probe(ctx, container, q); err != nil {
		return nil, err
	}
	return q, nil
}

// probe fills Type, Options and ElementRefs. Priority order matters: a
// container holding both a text input and radios (e.g. "Other: ___") is text.
func (c *Classifier) probe(ctx context.Context, container entity.ElementHandle, q *entity.Question) error {
	s := c.cfg.Selectors

	if els := c.locator.Within(ctx, container, s.TextInput); len(els) > 0 {
		q.Type, q.ElementRefs = entity.QuestionShortText, els[:1]
		return nil
	}
	if els := c.locator.Within(ctx, container, s.TextArea); len(els) > 0 {
		q.Type, q.ElementRefs = entity.QuestionLongText, els[:1]
		return nil
	}
	if els := c.locator.Within(ctx, container, s.Radio); len(els) > 0 {
		q.Type, q.ElementRefs = entity.QuestionSingleChoice, els
		q.Options = c.optionTexts(ctx, els)
		return nil
	}
	if els := c.locator.Within(ctx, container, s.Checkbox); len(els) > 0 {
		q.Type, q.ElementRefs = entity.QuestionMultiChoice, els
		q.Options = c.optionTexts(ctx, els)
		return nil
	}
	if els := c.locator.Within(ctx, container, s.Listbox); len(els) > 0 {
		return c.probeDropdown(ctx, els[0], q)
	}

	q.Type = entity.QuestionUnknown
	q.ElementRefs = nil
	return nil
}

func (c *Classifier) probeDropdown(ctx context.Context, listbox entity.ElementHandle, q *entity.Question) error {
	_, texts, err := c.OpenOptions(ctx, listbox)
	c.closeDropdown(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrDriverFatal) || errors.Is(err, entity.ErrStaleReference) {
			return err
		}
		c.logger.Warn("Dropdown options unreadable, leaving question unknown", "question", q.Label, "error", err)
		q.Type, q.ElementRefs = entity.QuestionUnknown, nil
		return nil
	}
	q.Type = entity.QuestionDropdown
	q.ElementRefs = []entity.ElementHandle{listbox}
	q.Options = texts
	return nil
}

func (c *Classifier) hasRequiredMarker(ctx context.Context, container entity.ElementHandle) bool {
	_, ok := c.locator.FirstWithin(ctx, container, c.cfg.Selectors.RequiredMarkers)
	return ok
}

// cleanLabel strips the required asterisk and collapses whitespace.
func cleanLabel(raw string) (string, bool) {
	asterisk := strings.Contains(raw, "*")
	text := strings.Join(strings.Fields(raw), " ")
	text = strings.TrimSpace(strings.TrimRight(text, "* "))
	return text, asterisk
}
