package entities

import (
	"encoding/json"

	"github.com/jinzhu/copier"
)

// GeneratedShot is a gallery entry. Params is a frozen copy of the scene at capture time
// and is never mutated after creation.
type GeneratedShot struct {
	ID        string      `json:"id"`
	Timestamp int64       `json:"timestamp"`
	ImageURL  string      `json:"imageUrl"`
	Engine    EngineKind  `json:"engine,omitempty"`
	Params    SceneParams `json:"params"`
}

// UnmarshalJSON decodes params over the defaults so shots from older documents stay complete.
func (s *GeneratedShot) UnmarshalJSON(b []byte) error {
	type plain GeneratedShot

	decoded := plain{Params: DefaultParams()}

	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}

	*s = GeneratedShot(decoded)

	return nil
}

// CloneGallery returns a deep copy of shots that shares no backing array with it. The
// result is never nil.
func CloneGallery(shots []GeneratedShot) []GeneratedShot {
	out := make([]GeneratedShot, 0, len(shots))

	err := copier.CopyWithOption(&out, &shots, copier.Option{DeepCopy: true})
	if err != nil || len(out) != len(shots) {
		return append(out[:0], shots...)
	}

	return out
}
