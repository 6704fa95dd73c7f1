package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) ExtractText(_ context.Context, _ image.Image, _ []string) (OCRText, error) {
	f.calls++
	if f.err != nil {
		return OCRText{}, f.err
	}
	return OCRText{Text: f.text, Engine: f.name, Confidence: 80}, nil
}

func blankPage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestFallbackEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("primary good enough", func(t *testing.T) {
		primary := &fakeEngine{name: "tesseract", text: "DOKUMENT DOSTAWY 80012345"}
		fallback := &fakeEngine{name: "paddleocr", text: "x"}
		res, err := NewFallbackEngine(primary, fallback, nil).ExtractText(ctx, blankPage(), nil)

		require.NoError(t, err)
		assert.Equal(t, "tesseract", res.Engine)
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := &fakeEngine{name: "tesseract", err: errors.New("no tessdata")}
		fallback := &fakeEngine{name: "paddleocr", text: "DOKUMENT DOSTAWY"}
		res, err := NewFallbackEngine(primary, fallback, nil).ExtractText(ctx, blankPage(), nil)

		require.NoError(t, err)
		assert.Equal(t, "paddleocr", res.Engine)
	})

	t.Run("primary too short", func(t *testing.T) {
		primary := &fakeEngine{name: "tesseract", text: " a \n b "}
		fallback := &fakeEngine{name: "paddleocr", text: "Nr Klienta 778899"}
		res, err := NewFallbackEngine(primary, fallback, nil).ExtractText(ctx, blankPage(), nil)

		require.NoError(t, err)
		assert.Equal(t, "Nr Klienta 778899", res.Text)
	})

	t.Run("both fail", func(t *testing.T) {
		primary := &fakeEngine{name: "tesseract", err: errors.New("primary")}
		fallback := &fakeEngine{name: "paddleocr", err: errors.New("fallback")}
		_, err := NewFallbackEngine(primary, fallback, nil).ExtractText(ctx, blankPage(), nil)

		assert.EqualError(t, err, "primary")
	})

	t.Run("fallback fails after short result", func(t *testing.T) {
		primary := &fakeEngine{name: "tesseract", text: "abc"}
		fallback := &fakeEngine{name: "paddleocr", err: errors.New("down")}
		res, err := NewFallbackEngine(primary, fallback, nil).ExtractText(ctx, blankPage(), nil)

		require.NoError(t, err)
		assert.Equal(t, "abc", res.Text)
	})

	t.Run("no fallback", func(t *testing.T) {
		primary := &fakeEngine{name: "tesseract", text: "abc"}
		engine := NewFallbackEngine(primary, nil, nil)
		res, err := engine.ExtractText(ctx, blankPage(), nil)

		require.NoError(t, err)
		assert.Equal(t, "abc", res.Text)
		assert.Equal(t, "tesseract", engine.Name())
	})
}

func TestPaddleClient(t *testing.T) {
	var got paddleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [[
			{"text": "DOKUMENT DOSTAWY 80012345", "confidence": 0.9},
			{"text": "Nr Klienta 778899", "confidence": 0.7}
		]]}`))
	}))
	defer srv.Close()

	res, err := NewPaddleClient(srv.URL, 5*time.Second, nil).ExtractText(context.Background(), blankPage(), []string{"pol"})
	require.NoError(t, err)
	assert.Equal(t, "DOKUMENT DOSTAWY 80012345\nNr Klienta 778899", res.Text)
	assert.InDelta(t, 80.0, res.Confidence, 0.001)
	assert.Equal(t, "paddleocr", res.Engine)

	require.Len(t, got.Images, 1)
	raw, err := base64.StdEncoding.DecodeString(got.Images[0])
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestPaddleClientErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewPaddleClient(srv.URL, time.Second, nil).ExtractText(context.Background(), blankPage(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("empty result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results": [[]]}`))
		}))
		defer srv.Close()

		_, err := NewPaddleClient(srv.URL, time.Second, nil).ExtractText(context.Background(), blankPage(), nil)
		assert.Error(t, err)
	})
}

func TestImageConditioner(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for x := 0; x < 32; x++ {
		for y := 0; y < 16; y++ {
			v := uint8(x * 8)
			src.Set(x, y, color.NRGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	before := append([]uint8(nil), src.Pix...)

	out := NewImageConditioner(30, 1.5, 160).Condition(src)

	assert.Equal(t, src.Bounds().Size(), out.Bounds().Size())
	assert.Equal(t, before, src.Pix)
	for i := 0; i < len(out.Pix); i += 4 {
		r, g, b := out.Pix[i], out.Pix[i+1], out.Pix[i+2]
		assert.True(t, (r == 0 && g == 0 && b == 0) || (r == 255 && g == 255 && b == 255),
			"pixel %d is not black or white: %d %d %d", i/4, r, g, b)
	}
}

func TestBinarize(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 1))
	src.Pix = []uint8{10, 160, 250}

	out := Binarize(src, 160)
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(2, 0))
}
