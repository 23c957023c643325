package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"form-agent/internal/application/port/input"
	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"

	"github.com/google/uuid"
)

var _ input.FormFiller = (*Orchestrator)(nil)

const finishTimeout = 15 * time.Second

type QuestionExtractor interface {
	Extract(ctx context.Context) ([]*entity.Question, error)
}

type AnswerStrategy interface {
	Answer(ctx context.Context, q *entity.Question) entity.Answer
}

type AnswerFiller interface {
	Fill(ctx context.Context, q *entity.Question, answer entity.Answer) error
}

type Navigator interface {
	Step(ctx context.Context) (entity.NavigationOutcome, error)
	HasSubmit(ctx context.Context) bool
	Reset()
}

type Config struct {
	// MaxPages bounds navigation cycles per run so a form that keeps
	// advancing forever still ends as stuck.
	MaxPages int
}

func DefaultConfig() Config {
	return Config{MaxPages: 50}
}

// Components are the collaborators of one form run. Recorder and Artifacts
// are optional.
type Components struct {
	Browser   output.BrowserPort
	Extractor QuestionExtractor
	Answers   AnswerStrategy
	Filler    AnswerFiller
	Navigator Navigator
	Recorder  output.RecorderPort
	Artifacts output.ArtifactPort
	Logger    output.LoggerPort
}

type Orchestrator struct {
	browser   output.BrowserPort
	extractor QuestionExtractor
	answers   AnswerStrategy
	filler    AnswerFiller
	nav       Navigator
	recorder  output.RecorderPort
	artifacts output.ArtifactPort
	logger    output.LoggerPort
	cfg       Config
}

func New(c Components, cfg Config) *Orchestrator {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultConfig().MaxPages
	}
	return &Orchestrator{
		browser:   c.Browser,
		extractor: c.Extractor,
		answers:   c.Answers,
		filler:    c.Filler,
		nav:       c.Navigator,
		recorder:  c.Recorder,
		artifacts: c.Artifacts,
		logger:    c.Logger,
		cfg:       cfg,
	}
}

// Run fills the form at url page by page until it is submitted or cannot
// progress. The result is returned even on failure and always carries the
// final statistics.
func (o *Orchestrator) Run(ctx context.Context, url string) (res *entity.RunResult, err error) {
	res = &entity.RunResult{
		RunID:     uuid.NewString(),
		URL:       url,
		StartedAt: time.Now(),
	}
	log := o.logger.WithField("run_id", res.RunID)
	log.Info("Starting form run", "url", url)

	o.nav.Reset()
	defer func() {
		res.FinishedAt = time.Now()
		res.Err = err
		o.finish(ctx, log, res)
	}()

	if err := o.browser.Navigate(ctx, url); err != nil {
		return res, fmt.Errorf("open form: %w", err)
	}

	submitted := false
	for cycle := 1; cycle <= o.cfg.MaxPages; cycle++ {
		if !submitted {
			if err := o.processPage(ctx, log, res); err != nil {
				return res, err
			}
		}

		outcome, err := o.nav.Step(ctx)
		res.Outcomes = append(res.Outcomes, outcome)
		log.Info("Navigation outcome", "outcome", outcome.String(), "cycle", cycle)

		switch outcome {
		case entity.OutcomeAdvance:
			submitted = false
		case entity.OutcomeSubmit:
			// the confirmation page has nothing to fill, only check it
			submitted = true
		case entity.OutcomeComplete:
			res.Completed = true
			return res, nil
		case entity.OutcomeStuck:
			if err == nil {
				err = entity.ErrNavigationStuck
			}
			return res, err
		default:
			return res, fmt.Errorf("unexpected navigation outcome %d", outcome)
		}
	}
	return res, fmt.Errorf("form did not finish within %d pages: %w", o.cfg.MaxPages, entity.ErrNavigationStuck)
}

func (o *Orchestrator) processPage(ctx context.Context, log output.LoggerPort, res *entity.RunResult) error {
	page := res.Stats.PagesProcessed + 1
	log = log.WithField("page", page)

	questions, err := o.extractor.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extract page %d: %w", page, err)
	}
	res.Stats.PagesProcessed++

	if len(questions) == 0 {
		if o.nav.HasSubmit(ctx) {
			log.Info("No questions on page, submit only")
			return nil
		}
		return fmt.Errorf("page %d: %w", page, entity.ErrExtractionEmpty)
	}
	log.Info("Questions extracted", "count", len(questions))

	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			return err
		}
		qlog := log.WithFields(map[string]any{"question": q.Label, "type": q.Type.String(), "number": i + 1})

		if !q.Fillable() {
			res.Stats.QuestionsSkipped++
			qlog.Warn("Skipping question without a recognized control")
			continue
		}

		answer := o.answers.Answer(ctx, q)
		if err := o.filler.Fill(ctx, q, answer); err != nil {
			if errors.Is(err, entity.ErrDriverFatal) {
				return err
			}
			res.Stats.QuestionsFailed++
			qlog.Warn("Failed to fill question", "error", err)
			continue
		}
		res.Stats.QuestionsAnswered++
		qlog.Debug("Question answered", "answer", answer.Kind())

		o.record(ctx, qlog, entity.AnswerRecord{
			Timestamp: time.Now(),
			RunID:     res.RunID,
			Page:      page,
			Number:    i + 1,
			Total:     len(questions),
			Question:  q,
			Answer:    answer,
		})
	}
	return nil
}

func (o *Orchestrator) record(ctx context.Context, log output.LoggerPort, rec entity.AnswerRecord) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordAnswer(ctx, rec); err != nil {
		log.Warn("Failed to record answer", "error", err)
	}
}

// finish runs even when ctx is already cancelled, so the capture and the
// run record still get written.
func (o *Orchestrator) finish(ctx context.Context, log output.LoggerPort, res *entity.RunResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	if shot, err := o.browser.Screenshot(ctx); err != nil {
		log.Warn("Final screenshot failed", "error", err)
	} else if o.artifacts != nil {
		path, err := o.artifacts.SaveScreenshot(ctx, "final_"+res.RunID, shot)
		if err != nil {
			log.Warn("Failed to save final screenshot", "error", err)
		} else {
			res.Screenshot = path
		}
	}

	if o.recorder != nil {
		if err := o.recorder.RecordRun(ctx, res); err != nil {
			log.Warn("Failed to record run", "error", err)
		}
	}

	fields := []any{
		"completed", res.Completed,
		"pages", res.Stats.PagesProcessed,
		"answered", res.Stats.QuestionsAnswered,
		"failed", res.Stats.QuestionsFailed,
		"skipped", res.Stats.QuestionsSkipped,
		"duration", res.FinishedAt.Sub(res.StartedAt).String(),
	}
	if res.Err != nil {
		log.Error("Form run failed", append(fields, "error", res.Err)...)
		return
	}
	log.Info("Form run finished", fields...)
}
