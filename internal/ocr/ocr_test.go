package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted map[PageSegMode]string

func (scripted) Name() string    { return "scripted" }
func (scripted) Available() bool { return true }

func (s scripted) Recognize(_ context.Context, _ image.Image, psm PageSegMode) (string, error) {
	out, ok := s[psm]
	if !ok {
		return "", errors.New("mode not scripted")
	}
	return out, nil
}

func TestRecognizeBest(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	tests := []struct {
		name   string
		engine scripted
		want   string
	}{
		{"single column comparable", scripted{PSMSingleColumn: "abcdef", PSMSingleBlock: "abcdefgh"}, "abcdef"},
		{"single column too short", scripted{PSMSingleColumn: "ab", PSMSingleBlock: "abcdefgh"}, "abcdefgh"},
		{"only block works", scripted{PSMSingleBlock: "block"}, "block"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RecognizeBest(context.Background(), tt.engine, img)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := RecognizeBest(context.Background(), scripted{}, img)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var e Engine = Noop{}
	assert.False(t, e.Available())
	_, err := e.Recognize(context.Background(), nil, PSMAuto)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestUpscale(t *testing.T) {
	small := image.NewGray(image.Rect(0, 0, 300, 120))
	up := Upscale(small, 1500, 3)
	assert.Equal(t, 900, up.Bounds().Dx())
	assert.Equal(t, 360, up.Bounds().Dy())

	wide := image.NewGray(image.Rect(0, 0, 1600, 120))
	assert.Same(t, wide, Upscale(wide, 1500, 3))

	assert.True(t, LargeEnough(small, 200, 100))
	assert.False(t, LargeEnough(small, 200, 150))
}
