package input

import (
	"context"

	"form-agent/internal/domain/entity"
)

type FormFiller interface {
	Run(ctx context.Context, url string) (*entity.RunResult, error)
}

type SubmissionSummary struct {
	Attempts  int
	Completed int
	Results   []*entity.RunResult
}

func (s *SubmissionSummary) Succeeded() bool {
	return s.Completed > 0
}

type SubmissionRunner interface {
	Run(ctx context.Context, url string, submissions int) (*SubmissionSummary, error)
}
