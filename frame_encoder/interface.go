package frame_encoder

import (
	"bytes"
	"image"
)

type Encoder interface {
	// Fit downscales img so its longer edge is at most the configured size.
	Fit(img image.Image) image.Image
	EncodeJPEG(img image.Image) (*bytes.Buffer, error)
	EncodePNG(img image.Image) (*bytes.Buffer, error)
}
