package output

import (
	"context"

	"form-agent/internal/domain/entity"
)

type RecorderPort interface {
	RecordAnswer(ctx context.Context, rec entity.AnswerRecord) error
	RecordRun(ctx context.Context, res *entity.RunResult) error
	Close() error
}

// ArtifactPort stores the final page capture and returns where it went.
type ArtifactPort interface {
	SaveScreenshot(ctx context.Context, name string, shot *entity.Screenshot) (string, error)
}
