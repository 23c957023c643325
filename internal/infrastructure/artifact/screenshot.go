package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"

	"github.com/disintegration/imaging"
)

var _ output.ArtifactPort = (*ScreenshotStore)(nil)

const maxWidth = 1024

var ErrEmptyScreenshot = errors.New("empty screenshot")

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ScreenshotStore writes captures as <dir>/<name>.jpg.
type ScreenshotStore struct {
	dir     string
	quality int
	logger  output.LoggerPort
}

func NewScreenshotStore(dir string, logger output.LoggerPort) *ScreenshotStore {
	if dir == "" {
		dir = "."
	}
	return &ScreenshotStore{dir: dir, quality: 80, logger: logger}
}

func (s *ScreenshotStore) SaveScreenshot(ctx context.Context, name string, shot *entity.Screenshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if shot == nil || len(shot.Data) == 0 {
		return "", ErrEmptyScreenshot
	}

	img, _, err := image.Decode(bytes.NewReader(shot.Data))
	if err != nil {
		return "", fmt.Errorf("decode screenshot: %w", err)
	}
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	path := filepath.Join(s.dir, fileName(name))
	if err := imaging.Save(img, path, imaging.JPEGQuality(s.quality)); err != nil {
		return "", fmt.Errorf("save screenshot: %w", err)
	}

	s.logger.Info("Screenshot saved", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return path, nil
}

func fileName(name string) string {
	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = "screenshot"
	}
	return name + ".jpg"
}
