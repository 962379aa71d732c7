package png_scene_info

import "previz_studio/entities"

type Extractor interface {
	// ExtractScene returns the embedded scene, or ErrNoScene.
	ExtractScene() (*entities.SceneParams, error)
	Width() int
	Height() int
}
