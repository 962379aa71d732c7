package frame_encoder

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"

	// DefaultQuality matches a 0.9 canvas capture.
	DefaultQuality = 90
)

type encoderImpl struct {
	quality int
	maxEdge int
}

type Config struct {
	// Quality is the JPEG quality, 1..100. Zero means DefaultQuality.
	Quality int
	// MaxEdge bounds the longer edge of fitted frames. Zero disables resampling.
	MaxEdge int
}

func New(cfg Config) (Encoder, error) {
	quality := cfg.Quality
	if quality == 0 {
		quality = DefaultQuality
	}

	if quality < 1 || quality > 100 {
		return nil, errors.New("invalid jpeg quality")
	}

	if cfg.MaxEdge < 0 {
		return nil, errors.New("invalid max edge")
	}

	return &encoderImpl{
		quality: quality,
		maxEdge: cfg.MaxEdge,
	}, nil
}

func (e *encoderImpl) Fit(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if e.maxEdge == 0 || (w <= e.maxEdge && h <= e.maxEdge) {
		return img
	}

	var newW, newH int
	if w >= h {
		newW = e.maxEdge
		newH = max(1, h*e.maxEdge/w)
	} else {
		newH = e.maxEdge
		newW = max(1, w*e.maxEdge/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	return dst
}

func (e *encoderImpl) EncodeJPEG(img image.Image) (*bytes.Buffer, error) {
	if img == nil {
		return nil, errors.New("missing image")
	}

	buf := new(bytes.Buffer)

	err := jpeg.Encode(buf, img, &jpeg.Options{Quality: e.quality})
	if err != nil {
		return nil, err
	}

	return buf, nil
}

func (e *encoderImpl) EncodePNG(img image.Image) (*bytes.Buffer, error) {
	if img == nil {
		return nil, errors.New("missing image")
	}

	buf := new(bytes.Buffer)

	err := png.Encode(buf, img)
	if err != nil {
		return nil, err
	}

	return buf, nil
}
