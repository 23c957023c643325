package recorder

import (
	"context"
	"errors"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

var _ output.RecorderPort = Multi(nil)

// Multi fans every call out to all recorders and joins their errors.
type Multi []output.RecorderPort

func (m Multi) RecordAnswer(ctx context.Context, rec entity.AnswerRecord) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordAnswer(ctx, rec))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordRun(ctx context.Context, res *entity.RunResult) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordRun(ctx, res))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
