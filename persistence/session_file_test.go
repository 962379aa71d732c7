package persistence

import (
	"encoding/json"
	"testing"
	"time"

	"previz_studio/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() entities.Session {
	s := entities.DefaultSession()
	s.SubjectDescription = "A lone violinist on a rooftop"
	s.SubjectModel = entities.SubjectHelmet
	s.KeyLight.ColorTemp = 3200
	s.KeyLight.Gel = "#f97316"
	s.FillLight.Enabled = false
	s.CameraAngle = entities.AngleDutch
	s.LensType = entities.Lens85mm
	s.ShotSize = entities.ShotCloseUp
	s.VisualStyle = entities.StyleFilmNoir
	s.Mode = entities.ModeDragFill
	s.ActiveLight = entities.RoleFill

	viewing := "shot-1"
	s.ViewingShotID = &viewing
	s.Gallery = []entities.GeneratedShot{
		{ID: "shot-1", Timestamp: 1700000000000, ImageURL: "https://cdn.example/1.png", Engine: entities.EngineBria, Params: entities.DefaultParams()},
	}

	return s
}

func TestRoundTrip(t *testing.T) {
	session := sampleSession()

	data, err := Export(session)
	require.NoError(t, err)

	got, err := Import(data, entities.DefaultSession())
	require.NoError(t, err)

	assert.Equal(t, session, got)
}

func TestExportUsesDocumentFieldNames(t *testing.T) {
	data, err := Export(entities.DefaultSession())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "Eye Level", doc["cameraAngle"])
	assert.Equal(t, "Wide Shot", doc["shotSize"])
	assert.Equal(t, "ORBIT", doc["mode"])
	assert.Equal(t, []any{}, doc["gallery"])
	assert.Nil(t, doc["viewingShotId"])

	key := doc["keyLight"].(map[string]any)
	assert.Equal(t, 5600.0, key["colorTemp"])
	assert.Equal(t, "#ffffff", key["gel"])
}

func TestImportMissingFillLightUsesDefaults(t *testing.T) {
	doc := `{"subjectDescription":"Cat","keyLight":{"position":{"x":1,"y":2,"z":3},"intensity":2,"colorTemp":2000,"gel":"#ef4444","enabled":true}}`

	got, err := Import([]byte(doc), entities.DefaultSession())
	require.NoError(t, err)

	assert.Equal(t, "Cat", got.SubjectDescription)
	assert.Equal(t, entities.DefaultFillLight(), got.FillLight)
	assert.Equal(t, 2000, got.KeyLight.ColorTemp)
	assert.Equal(t, entities.ShotWide, got.ShotSize)
}

func TestImportPartialLight(t *testing.T) {
	got, err := Import([]byte(`{"fillLight":{"enabled":false}}`), entities.DefaultSession())
	require.NoError(t, err)

	want := entities.DefaultFillLight()
	want.Enabled = false
	assert.Equal(t, want, got.FillLight)
}

func TestImportKeepsCurrentGalleryWhenAbsent(t *testing.T) {
	current := sampleSession()

	got, err := Import([]byte(`{"shotSize":"Medium Shot"}`), current)
	require.NoError(t, err)

	assert.Equal(t, current.Gallery, got.Gallery)
	assert.Equal(t, entities.ShotMedium, got.ShotSize)
	assert.Equal(t, entities.SubjectMannequin, got.SubjectModel)

	got.Gallery[0].ID = "mutated"
	assert.Equal(t, "shot-1", current.Gallery[0].ID)
}

func TestImportReplacesGallery(t *testing.T) {
	got, err := Import([]byte(`{"gallery":[{"id":"old","timestamp":1,"imageUrl":"x","params":{"shotSize":"Close Up"}}]}`), sampleSession())
	require.NoError(t, err)

	require.Len(t, got.Gallery, 1)
	assert.Equal(t, "old", got.Gallery[0].ID)
	assert.Equal(t, entities.EngineKind(""), got.Gallery[0].Engine)

	want := entities.DefaultParams()
	want.ShotSize = entities.ShotCloseUp
	assert.Equal(t, want, got.Gallery[0].Params)
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	for _, doc := range []string{``, `[]`, `"scene"`, `{"shotSize":`, `{"lensType":"70mm"}`} {
		_, err := Import([]byte(doc), entities.DefaultSession())
		assert.Error(t, err, doc)
	}

	_, err := Import([]byte(`{"cameraAngle":"Birds Eye"}`), entities.DefaultSession())
	assert.ErrorIs(t, err, &entities.InvalidEnumError{})
}

func TestExportShot(t *testing.T) {
	shot := sampleSession().Gallery[0]
	shot.Params.LensType = entities.Lens24mm

	data, err := ExportShot(shot)
	require.NoError(t, err)

	var params entities.SceneParams
	require.NoError(t, json.Unmarshal(data, &params))
	assert.Equal(t, shot.Params, params)
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "previz-scene-1700000000000.json", SessionFilename(time.UnixMilli(1700000000000)))
	assert.Equal(t, "previz-shot-abc.png", ShotFilename(entities.GeneratedShot{ID: "abc"}, "png"))
}
