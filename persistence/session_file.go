// Package persistence reads and writes session documents: a JSON dump of the scene, the UI
// state and the gallery.
package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"previz_studio/entities"
)

var ErrNotObject = errors.New("session document must be a JSON object")

// Export writes the whole session as indented JSON.
func Export(session entities.Session) ([]byte, error) {
	if session.Gallery == nil {
		session.Gallery = []entities.GeneratedShot{}
	}

	return json.MarshalIndent(session, "", "  ")
}

// Import shallow-merges a session document onto the defaults. Fields the document omits
// take their default values, a partial light object fills the rest of that light from the
// default light, and a document without a gallery keeps the current one.
func Import(data []byte, current entities.Session) (entities.Session, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return entities.Session{}, ErrNotObject
	}

	merged := entities.DefaultSession()
	merged.Gallery = entities.CloneGallery(current.Gallery)

	if err := json.Unmarshal(trimmed, &merged); err != nil {
		return entities.Session{}, fmt.Errorf("invalid session document: %w", err)
	}

	if merged.Gallery == nil {
		merged.Gallery = []entities.GeneratedShot{}
	}

	return merged, nil
}

// ExportShot writes the frozen scene of one shot.
func ExportShot(shot entities.GeneratedShot) ([]byte, error) {
	return json.MarshalIndent(shot.Params, "", "  ")
}

func SessionFilename(at time.Time) string {
	return fmt.Sprintf("previz-scene-%d.json", at.UnixMilli())
}

func ShotFilename(shot entities.GeneratedShot, ext string) string {
	return fmt.Sprintf("previz-shot-%s.%s", shot.ID, ext)
}
