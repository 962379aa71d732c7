package entities

import (
	"time"

	"github.com/jinzhu/copier"
)

// Session is the full persisted session state: scene parameters plus UI state and gallery.
type Session struct {
	SceneParams
	Mode          ControlMode     `json:"mode"`
	ActiveLight   LightRole       `json:"activeLight"`
	Gallery       []GeneratedShot `json:"gallery"`
	IsGalleryOpen bool            `json:"isGalleryOpen"`
	ViewingShotID *string         `json:"viewingShotId"`
}

func DefaultSession() Session {
	return Session{
		SceneParams:   DefaultParams(),
		Mode:          ModeOrbit,
		ActiveLight:   RoleKey,
		Gallery:       []GeneratedShot{},
		IsGalleryOpen: true,
	}
}

// Clone returns a deep copy of s. The gallery and the viewed shot id are not shared with s.
func (s Session) Clone() Session {
	var dst Session

	if err := copier.CopyWithOption(&dst, &s, copier.Option{DeepCopy: true}); err != nil {
		dst = s
		dst.Gallery = CloneGallery(s.Gallery)

		if s.ViewingShotID != nil {
			id := *s.ViewingShotID
			dst.ViewingShotID = &id
		}
	}

	return dst
}

// SessionSettings are the per-session values kept between runs.
type SessionSettings struct {
	SessionID  string      `json:"session_id"`
	Engine     EngineKind  `json:"engine"`
	Credential string      `json:"credential"`
	Scene      SceneParams `json:"scene"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
