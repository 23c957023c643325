package recorder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

var _ output.RecorderPort = (*JSONL)(nil)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONL appends one JSON object per answered question.
type JSONL struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	enc    *jsoniter.Encoder
}

// OpenJSONL opens path for appending, creating parent directories.
func OpenJSONL(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create records dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	j := NewJSONL(f)
	j.closer = f
	return j, nil
}

func NewJSONL(w io.Writer) *JSONL {
	return &JSONL{w: w, enc: json.NewEncoder(w)}
}

func (j *JSONL) RecordAnswer(ctx context.Context, rec entity.AnswerRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.enc == nil {
		return os.ErrClosed
	}
	if err := j.enc.Encode(NewRecord(rec)); err != nil {
		return fmt.Errorf("write answer record: %w", err)
	}
	return nil
}

// RecordRun flushes the file so a crashed process keeps finished runs.
func (j *JSONL) RecordRun(ctx context.Context, res *entity.RunResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if f, ok := j.w.(*os.File); ok {
		return f.Sync()
	}
	return nil
}

func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.enc = nil
	if j.closer == nil {
		return nil
	}
	err := j.closer.Close()
	j.closer = nil
	return err
}
