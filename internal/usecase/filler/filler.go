package filler

import (
	"context"
	"errors"
	"fmt"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/usecase/locator"
)

// QuestionSource re-reads live controls for a question. The classifier
// implements it.
type QuestionSource interface {
	Reacquire(ctx context.Context, q *entity.Question) error
	OpenOptions(ctx context.Context, listbox entity.ElementHandle) ([]entity.ElementHandle, []string, error)
}

type Filler struct {
	browser   output.BrowserPort
	locator   *locator.Locator
	questions QuestionSource
	logger    output.LoggerPort
}

func New(browser output.BrowserPort, loc *locator.Locator, questions QuestionSource, logger output.LoggerPort) *Filler {
	return &Filler{
		browser:   browser,
		locator:   loc,
		questions: questions,
		logger:    logger.WithField("component", "filler"),
	}
}

// Fill applies an answer to the page. A nil error means every interaction
// succeeded. Failures wrap entity.ErrFillFailure unless the driver died.
func (f *Filler) Fill(ctx context.Context, q *entity.Question, answer entity.Answer) error {
	err := f.fill(ctx, q, answer)
	if err == nil {
		return nil
	}
	if errors.Is(err, entity.ErrDriverFatal) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", entity.ErrFillFailure, q.Label, err)
}

func (f *Filler) fill(ctx context.Context, q *entity.Question, answer entity.Answer) error {
	if q.Type == entity.QuestionUnknown {
		return errors.New("unknown question cannot be filled")
	}
	if len(q.ElementRefs) == 0 {
		return entity.ErrElementNotFound
	}

	switch q.Type {
	case entity.QuestionShortText, entity.QuestionLongText:
		a, ok := answer.(entity.TextAnswer)
		if !ok {
			return mismatch(q, answer)
		}
		return f.retryStale(ctx, q, func() error { return f.fillText(ctx, q.ElementRefs[0], a.Text) })

	case entity.QuestionSingleChoice:
		a, ok := answer.(entity.SingleIndex)
		if !ok {
			return mismatch(q, answer)
		}
		return f.retryStale(ctx, q, func() error { return f.clickIndex(ctx, q.ElementRefs, a.Index) })

	case entity.QuestionDropdown:
		a, ok := answer.(entity.SingleIndex)
		if !ok {
			return mismatch(q, answer)
		}
		return f.retryStale(ctx, q, func() error { return f.selectDropdown(ctx, q.ElementRefs[0], a.Index) })

	case entity.QuestionMultiChoice:
		a, ok := answer.(entity.MultiIndex)
		if !ok {
			return mismatch(q, answer)
		}
		return f.fillMulti(ctx, q, a.Indices)
	}
	return fmt.Errorf("no fill strategy for question type %s", q.Type)
}

func (f *Filler) fillText(ctx context.Context, el entity.ElementHandle, text string) error {
	if err := f.browser.Clear(ctx, el); err != nil {
		if errors.Is(err, entity.ErrStaleReference) || errors.Is(err, entity.ErrDriverFatal) {
			return err
		}
		f.logger.Debug("Direct clear rejected, using select-all and delete", "element", el.Describe(), "error", err)
		if err := f.browser.SelectAllAndDelete(ctx, el); err != nil {
			return fmt.Errorf("clear field: %w", err)
		}
	}
	if err := f.browser.Type(ctx, el, text); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

func (f *Filler) clickIndex(ctx context.Context, refs []entity.ElementHandle, idx int) error {
	if idx < 0 || idx >= len(refs) {
		return fmt.Errorf("option index %d out of range [0,%d)", idx, len(refs))
	}
	return f.locator.ClickErr(ctx, refs[idx])
}

// selectDropdown opens the listbox and clicks among the options rendered by
// that open, never the ones cached at classification time.
func (f *Filler) selectDropdown(ctx context.Context, listbox entity.ElementHandle, idx int) error {
	options, _, err := f.questions.OpenOptions(ctx, listbox)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		if err := f.browser.PressEscape(ctx); err != nil {
			f.logger.Debug("Escape failed while closing dropdown", "error", err)
		}
		return fmt.Errorf("option index %d out of range [0,%d)", idx, len(options))
	}
	return f.locator.ClickErr(ctx, options[idx])
}

// fillMulti clicks every selected option even after a failure.
func (f *Filler) fillMulti(ctx context.Context, q *entity.Question, indices []int) error {
	if len(indices) == 0 {
		return errors.New("no options selected")
	}
	var errs []error
	for _, idx := range indices {
		err := f.retryStale(ctx, q, func() error { return f.clickIndex(ctx, q.ElementRefs, idx) })
		if err == nil {
			continue
		}
		if errors.Is(err, entity.ErrDriverFatal) {
			return err
		}
		f.logger.Warn("Option click failed", "question", q.Label, "index", idx, "error", err)
		errs = append(errs, fmt.Errorf("option %d: %w", idx, err))
	}
	return errors.Join(errs...)
}

func (f *Filler) retryStale(ctx context.Context, q *entity.Question, action func() error) error {
	err := action()
	if !errors.Is(err, entity.ErrStaleReference) {
		return err
	}
	f.logger.Warn("Stale element, re-acquiring question controls", "question", q.Label, "error", err)
	if rerr := f.questions.Reacquire(ctx, q); rerr != nil {
		return errors.Join(err, rerr)
	}
	return action()
}

func mismatch(q *entity.Question, a entity.Answer) error {
	if a == nil {
		return fmt.Errorf("no answer for %s question", q.Type)
	}
	return fmt.Errorf("%s answer does not fit %s question", a.Kind(), q.Type)
}
