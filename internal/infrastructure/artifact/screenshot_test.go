package artifact

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/logger"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngShot(t *testing.T, w, h int) *entity.Screenshot {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 40, G: 120, B: 200, A: 255})
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return &entity.Screenshot{Data: buf.Bytes(), Format: "png", Width: w, Height: h}
}

func TestSaveScreenshot_WritesJPEG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := NewScreenshotStore(dir, logger.NewNop())

	path, err := s.SaveScreenshot(context.Background(), "final_run-1", pngShot(t, 320, 200))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "final_run-1.jpg"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestSaveScreenshot_ResizesWide(t *testing.T) {
	s := NewScreenshotStore(t.TempDir(), logger.NewNop())

	path, err := s.SaveScreenshot(context.Background(), "wide", pngShot(t, 2048, 1000))
	require.NoError(t, err)

	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, maxWidth, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())
}

func TestSaveScreenshot_Errors(t *testing.T) {
	s := NewScreenshotStore(t.TempDir(), logger.NewNop())

	_, err := s.SaveScreenshot(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrEmptyScreenshot)

	_, err = s.SaveScreenshot(context.Background(), "x", &entity.Screenshot{Data: []byte("not an image")})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SaveScreenshot(ctx, "x", pngShot(t, 10, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "final_abc.jpg", fileName("final_abc"))
	assert.Equal(t, ".._etc_passwd.jpg", fileName("../etc/passwd"))
	assert.Equal(t, "screenshot.jpg", fileName(""))
}
