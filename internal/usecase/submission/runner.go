package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"form-agent/internal/application/port/input"
	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"

	"golang.org/x/time/rate"
)

var _ input.SubmissionRunner = (*Runner)(nil)

// Runner repeats whole form runs, keeping at least delay between the end of
// one run and the start of the next.
type Runner struct {
	filler  input.FormFiller
	logger  output.LoggerPort
	limit   rate.Limit
	limiter *rate.Limiter
}

func New(filler input.FormFiller, logger output.LoggerPort, delay time.Duration) *Runner {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Runner{
		filler:  filler,
		logger:  logger,
		limit:   limit,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// settle spends the only token at the end of a run, so the next Wait blocks
// for a full delay from now however long the run took.
func (r *Runner) settle() {
	r.limiter = rate.NewLimiter(r.limit, 1)
	r.limiter.Reserve()
}

// Run performs up to submissions runs. A failed run does not stop the
// next one unless the browser session itself is gone.
func (r *Runner) Run(ctx context.Context, url string, submissions int) (*input.SubmissionSummary, error) {
	if submissions < 1 {
		return nil, fmt.Errorf("submissions must be at least 1, got %d", submissions)
	}

	summary := &input.SubmissionSummary{}
	for i := 1; i <= submissions; i++ {
		if err := r.limiter.Wait(ctx); err != nil {
			r.logger.Warn("Stopped waiting for next submission", "error", err)
			return summary, err
		}

		log := r.logger.WithFields(map[string]any{"submission": i, "of": submissions})
		log.Info("Starting submission")

		res, err := r.filler.Run(ctx, url)
		r.settle()
		summary.Attempts++
		if res != nil {
			summary.Results = append(summary.Results, res)
		}

		switch {
		case err == nil && res != nil && res.Completed:
			summary.Completed++
			log.Info("Submission completed")
		case err == nil:
			log.Warn("Submission finished without completion")
		case errors.Is(err, entity.ErrDriverFatal):
			log.Error("Browser session lost, stopping", "error", err)
			return summary, err
		case ctx.Err() != nil:
			return summary, ctx.Err()
		default:
			log.Error("Submission failed", "error", err)
		}
	}

	r.logger.Info("Submissions done", "completed", summary.Completed, "attempts", summary.Attempts)
	return summary, nil
}
