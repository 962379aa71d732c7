// Package capture_pipeline takes "clean plate" captures of the stage: subject and lights
// only, with grid and gizmos hidden.
package capture_pipeline

import (
	"encoding/base64"
	"errors"
	"fmt"

	"previz_studio/frame_encoder"

	"github.com/rs/zerolog/log"
)

type CleanPlate struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// DataURL renders the plate as a data URL, the form generation engines receive it in.
func (p *CleanPlate) DataURL() string {
	return "data:" + p.MimeType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

type pipelineImpl struct {
	stage   Stage
	state   StateReader
	encoder frame_encoder.Encoder
}

type Config struct {
	Stage   Stage
	State   StateReader
	Encoder frame_encoder.Encoder
}

func New(cfg Config) (Pipeline, error) {
	if cfg.Stage == nil {
		return nil, errors.New("missing stage")
	}

	if cfg.State == nil {
		return nil, errors.New("missing state reader")
	}

	encoder := cfg.Encoder
	if encoder == nil {
		var err error

		encoder, err = frame_encoder.New(frame_encoder.Config{})
		if err != nil {
			return nil, err
		}
	}

	return &pipelineImpl{
		stage:   cfg.Stage,
		state:   cfg.State,
		encoder: encoder,
	}, nil
}

func (p *pipelineImpl) CaptureCleanPlate() (*CleanPlate, error) {
	var plate *CleanPlate

	err := p.stage.Exclusive(func(f Frame) error {
		saved := f.Helpers()

		// Restore on every exit path. Gizmo meshes follow the live light state rather
		// than the recorded flags, since the lights may have been toggled meanwhile.
		defer func() {
			live := p.state.Get()

			restored := saved
			restored.KeyGizmoVisible = live.KeyLight.Enabled
			restored.FillGizmoVisible = live.FillLight.Enabled

			f.SetHelpers(restored)
		}()

		f.SetHelpers(Helpers{TransformTarget: saved.TransformTarget})

		if err := f.Render(); err != nil {
			return err
		}

		img, err := f.Snapshot()
		if err != nil {
			return err
		}

		if img == nil || img.Bounds().Empty() {
			return ErrNotReady
		}

		fitted := p.encoder.Fit(img)

		buf, err := p.encoder.EncodeJPEG(fitted)
		if err != nil {
			return fmt.Errorf("encode clean plate: %w", err)
		}

		bounds := fitted.Bounds()

		plate = &CleanPlate{
			Data:     buf.Bytes(),
			MimeType: frame_encoder.MimeJPEG,
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
		}

		return nil
	})
	if err != nil {
		log.Printf("Error capturing clean plate: %v", err)

		return nil, err
	}

	return plate, nil
}
