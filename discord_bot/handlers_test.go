package discord_bot

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"previz_studio/asset_loader"
	"previz_studio/clock"
	"previz_studio/databases/sqlite"
	"previz_studio/entities"
	"previz_studio/frame_encoder"
	"previz_studio/generation_coordinator"
	"previz_studio/generation_engine"
	"previz_studio/persistence"
	"previz_studio/png_scene_info"
	"previz_studio/repositories"
	"previz_studio/repositories/session_settings"
	"previz_studio/scene_state"
	"previz_studio/stage"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type primitiveLoader struct{}

func (primitiveLoader) Load(ctx context.Context, model entities.SubjectModel) *asset_loader.Subject {
	return &asset_loader.Subject{Model: model, Primitives: []asset_loader.Primitive{asset_loader.FallbackPrimitive}}
}

type generateCall struct {
	engine     entities.EngineKind
	credential string
}

type fakeCoordinator struct {
	mu      sync.Mutex
	calls   []generateCall
	result  *entities.GeneratedShot
	err     error
	gallery []entities.GeneratedShot
}

func (c *fakeCoordinator) Generate(ctx context.Context, engine entities.EngineKind, credential string) (*entities.GeneratedShot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, generateCall{engine: engine, credential: credential})

	if c.err != nil {
		return nil, c.err
	}

	shot := *c.result
	c.gallery = append([]entities.GeneratedShot{shot}, c.gallery...)

	return &shot, nil
}

func (c *fakeCoordinator) lastCall() generateCall {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[len(c.calls)-1]
}

func (c *fakeCoordinator) Status() generation_coordinator.Status {
	return generation_coordinator.StatusIdle
}

func (c *fakeCoordinator) Gallery() []entities.GeneratedShot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]entities.GeneratedShot{}, c.gallery...)
}

func (c *fakeCoordinator) Shot(id string) (*entities.GeneratedShot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.gallery {
		if s.ID == id {
			shot := s
			return &shot, true
		}
	}

	return nil, false
}

func (c *fakeCoordinator) RemoveShot(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.gallery {
		if s.ID == id {
			c.gallery = append(c.gallery[:i:i], c.gallery[i+1:]...)
			return nil
		}
	}

	return repositories.NewNotFoundError("generated shot " + id)
}

func (c *fakeCoordinator) LoadGallery(ctx context.Context) error {
	return nil
}

func (c *fakeCoordinator) OnStatusChange(l generation_coordinator.StatusListener) {}

type testEnv struct {
	h           *handlers
	store       scene_state.Store
	coordinator *fakeCoordinator
	repo        session_settings.Repository
	clock       *clock.FakeClock
}

var configuredKeys = map[entities.EngineKind]string{
	entities.EngineBria:   "bria-config-key",
	entities.EngineGemini: "gemini-config-key",
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite.New(ctx, sqlite.Config{Filename: sqlite.MemoryDB})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	repo, err := session_settings.NewRepository(&session_settings.Config{DB: db, Clock: clk})
	require.NoError(t, err)

	st := stage.New()
	st.Resize(64, 36)

	store, err := scene_state.New(scene_state.Config{Loader: primitiveLoader{}, Renderer: st})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	encoder, err := frame_encoder.New(frame_encoder.Config{MaxEdge: 32})
	require.NoError(t, err)

	coordinator := &fakeCoordinator{}

	return &testEnv{
		h: &handlers{
			store:         store,
			coordinator:   coordinator,
			sessionRepo:   repo,
			previewer:     st,
			encoder:       encoder,
			credentials:   func(engine entities.EngineKind) string { return configuredKeys[engine] },
			defaultEngine: entities.EngineBria,
			sessionID:     "guild-1",
			httpClient:    http.DefaultClient,
			clock:         clk,
		},
		store:       store,
		coordinator: coordinator,
		repo:        repo,
		clock:       clk,
	}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func numberOpt(name string, value float64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionNumber,
		Value: value,
	}
}

func opts(options ...*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	return newOptionMap(options)
}

func readFile(t *testing.T, f *discordgo.File) []byte {
	t.Helper()

	data, err := io.ReadAll(f.Reader)
	require.NoError(t, err)

	return data
}

func pngDataURL(t *testing.T) string {
	t.Helper()

	encoder, err := frame_encoder.New(frame_encoder.Config{})
	require.NoError(t, err)

	buf, err := encoder.EncodePNG(image.NewRGBA(image.Rect(0, 0, 8, 4)))
	require.NoError(t, err)

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestSceneCommandSetsFieldAndAttachesPreview(t *testing.T) {
	env := newTestEnv(t)

	r := env.h.scene(context.Background(), opts(stringOpt("field", "shotSize"), stringOpt("value", "Close Up")))

	assert.Contains(t, r.content, "Set shotSize to Close Up.")
	assert.Equal(t, entities.ShotCloseUp, env.store.Get().ShotSize)

	require.Len(t, r.files, 1)
	assert.Equal(t, "preview.png", r.files[0].Name)

	preview, err := png_scene_info.New(png_scene_info.Config{PngData: readFile(t, r.files[0])})
	require.NoError(t, err)
	assert.Equal(t, 32, preview.Width())

	settings, err := env.repo.GetBySessionID(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Equal(t, entities.ShotCloseUp, settings.Scene.ShotSize)
	assert.Equal(t, entities.EngineBria, settings.Engine)
}

func TestSceneCommandWithoutOptionsOnlySummarizes(t *testing.T) {
	env := newTestEnv(t)

	r := env.h.scene(context.Background(), opts())

	assert.Contains(t, r.content, "Wide Shot, Eye Level, 35mm lens (54° FOV)")
	assert.Contains(t, r.content, "Key: 5600K Neutral Daylight, Neutral gel, 120% at (-2.0, 2.5, -2.0)")

	_, err := env.repo.GetBySessionID(context.Background(), "guild-1")
	assert.ErrorIs(t, err, &repositories.NotFoundError{})
}

func TestSceneCommandNeedsFieldAndValue(t *testing.T) {
	env := newTestEnv(t)

	r := env.h.scene(context.Background(), opts(stringOpt("field", "shotSize")))

	assert.Equal(t, "Both a field and a value are needed to change the scene.", r.content)
	assert.Equal(t, entities.ShotWide, env.store.Get().ShotSize)
}

func TestSceneCommandInvalidValueLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	before := env.store.Get()

	r := env.h.scene(context.Background(), opts(stringOpt("field", "lensType"), stringOpt("value", "300mm")))

	assert.Contains(t, r.content, "Couldn't do that")
	assert.Empty(t, r.files)
	assert.Equal(t, before, env.store.Get())
}

func TestSceneCommandPresetModeAndOrbit(t *testing.T) {
	env := newTestEnv(t)

	r := env.h.scene(context.Background(), opts(
		stringOpt("preset", "split"),
		stringOpt("mode", "DRAG_FILL"),
		numberOpt("orbit", 90),
	))

	assert.Contains(t, r.content, "Applied split lighting.")
	assert.Contains(t, r.content, "Switched to DRAG_FILL.")
	assert.Contains(t, r.content, "Orbited to 90°.")

	params := env.store.Get()
	assert.Equal(t, entities.Vector3{X: -4, Y: 1.5, Z: 0}, params.KeyLight.Position)
	assert.InDelta(t, 0.1, params.FillLight.Intensity, 1e-9)
	assert.Equal(t, entities.ModeDragFill, env.store.Mode())
	assert.Equal(t, entities.RoleFill, env.store.ActiveLight())
}

func TestSceneCommandUnknownPreset(t *testing.T) {
	env := newTestEnv(t)

	r := env.h.scene(context.Background(), opts(stringOpt("preset", "Loop")))

	assert.Contains(t, r.content, "unknown lighting preset")
}

func TestLightCommand(t *testing.T) {
	env := newTestEnv(t)

	r := env.h.light(context.Background(), opts(
		stringOpt("role", "fill"),
		stringOpt("field", "colorTemp"),
		stringOpt("value", "3200"),
	))

	assert.Contains(t, r.content, "Set fill light colorTemp to 3200.")
	assert.Contains(t, r.content, "Fill: 3200K Warm White")
	assert.Equal(t, 3200, env.store.Get().FillLight.ColorTemp)
	require.Len(t, r.files, 1)

	r = env.h.light(context.Background(), opts(
		stringOpt("role", "key"),
		stringOpt("field", "colorTemp"),
		stringOpt("value", "12000"),
	))

	assert.Contains(t, r.content, "Couldn't do that")
	assert.Equal(t, 5600, env.store.Get().KeyLight.ColorTemp)
}

func TestLightCommandDisabledLight(t *testing.T) {
	env := newTestEnv(t)

	r := env.h.light(context.Background(), opts(
		stringOpt("role", "fill"),
		stringOpt("field", "enabled"),
		stringOpt("value", "false"),
	))

	assert.Contains(t, r.content, "Fill: off")
}

func TestGenerateCredentialResolution(t *testing.T) {
	env := newTestEnv(t)
	env.coordinator.result = &entities.GeneratedShot{ID: "s1", Engine: entities.EngineBria, ImageURL: "https://cdn.example/s1.png"}
	ctx := context.Background()

	env.h.generate(ctx, opts())
	assert.Equal(t, generateCall{engine: entities.EngineBria, credential: "bria-config-key"}, env.coordinator.lastCall())

	env.h.generate(ctx, opts(stringOpt("engine", "FAL"), stringOpt("credential", "user-key")))
	assert.Equal(t, generateCall{engine: entities.EngineFal, credential: "user-key"}, env.coordinator.lastCall())

	settings, err := env.repo.GetBySessionID(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, entities.EngineFal, settings.Engine)
	assert.Equal(t, "user-key", settings.Credential)

	// the session's engine and credential are remembered
	env.h.generate(ctx, opts())
	assert.Equal(t, generateCall{engine: entities.EngineFal, credential: "user-key"}, env.coordinator.lastCall())

	// a stored credential only applies to its own engine
	env.h.generate(ctx, opts(stringOpt("engine", "GEMINI")))
	assert.Equal(t, generateCall{engine: entities.EngineGemini, credential: "gemini-config-key"}, env.coordinator.lastCall())
}

func TestGenerateUnknownEngine(t *testing.T) {
	env := newTestEnv(t)

	r := env.h.generate(context.Background(), opts(stringOpt("engine", "MIDJOURNEY")))

	assert.Contains(t, r.content, "Couldn't do that")
	assert.Empty(t, env.coordinator.calls)
}

func TestGenerateRemoteImageIsEmbedded(t *testing.T) {
	env := newTestEnv(t)
	env.coordinator.result = &entities.GeneratedShot{
		ID:       "s1",
		Engine:   entities.EngineFal,
		ImageURL: "https://cdn.example/s1.png",
		Params:   env.store.Get(),
	}

	r := env.h.generate(context.Background(), opts())

	assert.Contains(t, r.content, "Shot `s1` from FAL.")
	assert.Empty(t, r.files)
	require.Len(t, r.embeds, 1)
	assert.Equal(t, "https://cdn.example/s1.png", r.embeds[0].Image.URL)
}

func TestGenerateInlineImageCarriesScene(t *testing.T) {
	env := newTestEnv(t)

	params := env.store.Get()
	params.VisualStyle = entities.StyleFilmNoir

	env.coordinator.result = &entities.GeneratedShot{
		ID:       "s2",
		Engine:   entities.EngineGemini,
		ImageURL: pngDataURL(t),
		Params:   params,
	}

	r := env.h.generate(context.Background(), opts())

	require.Len(t, r.files, 1)
	assert.Equal(t, "previz-shot-s2.png", r.files[0].Name)
	assert.Equal(t, "image/png", r.files[0].ContentType)

	extractor, err := png_scene_info.New(png_scene_info.Config{PngData: readFile(t, r.files[0])})
	require.NoError(t, err)

	scene, err := extractor.ExtractScene()
	require.NoError(t, err)
	assert.Equal(t, params, *scene)
}

func TestGenerateErrorsAreReported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"busy", generation_coordinator.ErrBusy, "already in progress"},
		{"credential", generation_engine.ErrMissingCredential, "No API key"},
		{"transport", &generation_engine.TransportError{Engine: entities.EngineBria, Status: 401}, "BRIA request failed with status 401."},
		{"timeout", context.DeadlineExceeded, "timed out"},
		{"other", errors.New("boom"), "Couldn't do that: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.coordinator.err = tt.err

			r := env.h.generate(context.Background(), opts())

			assert.Contains(t, r.content, tt.want)
		})
	}
}

func TestExportSession(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SetField("shotSize", "Medium Shot"))
	env.coordinator.gallery = []entities.GeneratedShot{{ID: "s1", Params: entities.DefaultParams()}}

	r := env.h.export(opts())

	require.Len(t, r.files, 1)
	assert.Equal(t, persistence.SessionFilename(env.clock.Now()), r.files[0].Name)

	session, err := persistence.Import(readFile(t, r.files[0]), entities.DefaultSession())
	require.NoError(t, err)
	assert.Equal(t, entities.ShotMedium, session.ShotSize)
	require.Len(t, session.Gallery, 1)
	assert.Equal(t, "s1", session.Gallery[0].ID)
}

func TestExportShot(t *testing.T) {
	env := newTestEnv(t)

	params := entities.DefaultParams()
	params.LensType = entities.Lens85mm
	env.coordinator.gallery = []entities.GeneratedShot{{ID: "s1", Params: params}}

	r := env.h.export(opts(stringOpt("shot", "s1")))
	require.Len(t, r.files, 1)
	assert.Equal(t, "previz-shot-s1.json", r.files[0].Name)
	assert.Contains(t, string(readFile(t, r.files[0])), `"lensType": "85mm"`)

	r = env.h.export(opts(stringOpt("shot", "missing")))
	assert.Equal(t, "No shot with ID `missing`.", r.content)
}

func serve(t *testing.T, body []byte) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	return server.URL
}

func TestImportSessionDocument(t *testing.T) {
	env := newTestEnv(t)

	session := entities.DefaultSession()
	session.ShotSize = entities.ShotCloseUp
	session.FillLight.Enabled = false
	session.Mode = entities.ModeDragFill
	session.ActiveLight = entities.RoleFill

	doc, err := persistence.Export(session)
	require.NoError(t, err)

	r := env.h.importFile(context.Background(), serve(t, doc))

	assert.Contains(t, r.content, "Session imported.")
	assert.Equal(t, session.SceneParams, env.store.Get())
	assert.Equal(t, entities.ModeDragFill, env.store.Mode())
	assert.Equal(t, entities.RoleFill, env.store.ActiveLight())

	settings, err := env.repo.GetBySessionID(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.False(t, settings.Scene.FillLight.Enabled)
}

func TestImportPartialDocumentUsesDefaults(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SetField("visualStyle", "Cyberpunk"))

	r := env.h.importFile(context.Background(), serve(t, []byte(`{"lensType":"24mm"}`)))

	assert.Contains(t, r.content, "Session imported.")

	want := entities.DefaultParams()
	want.LensType = entities.Lens24mm
	assert.Equal(t, want, env.store.Get())
}

func TestImportShotPNG(t *testing.T) {
	env := newTestEnv(t)

	params := entities.DefaultParams()
	params.CameraAngle = entities.AngleLow
	params.SubjectModel = entities.SubjectCube

	_, data, err := decodeDataURL(pngDataURL(t))
	require.NoError(t, err)

	embedded, err := png_scene_info.Embed(data, params)
	require.NoError(t, err)

	r := env.h.importFile(context.Background(), serve(t, embedded))

	assert.Contains(t, r.content, "Loaded the scene from the shot.")
	assert.Equal(t, params, env.store.Get())
}

func TestImportRejectsBadFiles(t *testing.T) {
	env := newTestEnv(t)
	before := env.store.Get()

	r := env.h.importFile(context.Background(), serve(t, []byte(`[1, 2]`)))
	assert.Contains(t, r.content, "Couldn't do that")

	r = env.h.importFile(context.Background(), serve(t, []byte(`{"shotSize":"Extreme Close Up"}`)))
	assert.Contains(t, r.content, "Couldn't do that")

	_, data, err := decodeDataURL(pngDataURL(t))
	require.NoError(t, err)

	r = env.h.importFile(context.Background(), serve(t, data))
	assert.Contains(t, r.content, "Couldn't do that")

	r = env.h.importFile(context.Background(), "")
	assert.Equal(t, "Attach a session JSON or a shot PNG.", r.content)

	assert.Equal(t, before, env.store.Get())
}

func TestGalleryCommand(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	r := env.h.gallery(ctx, opts())
	assert.Equal(t, "The gallery is empty. Use /generate to add a shot.", r.content)

	env.coordinator.gallery = []entities.GeneratedShot{
		{ID: "s2", Engine: entities.EngineGemini, ImageURL: "https://cdn.example/s2.png", Timestamp: 2000, Params: entities.DefaultParams()},
		{ID: "s1", ImageURL: "https://cdn.example/s1.png", Timestamp: 1000, Params: entities.DefaultParams()},
	}

	r = env.h.gallery(ctx, opts())
	assert.Contains(t, r.content, "2 shots, newest first:")
	assert.Contains(t, r.content, "`s2` GEMINI, Wide Shot, Cinematic <t:2:R>")
	assert.Contains(t, r.content, "`s1` unknown engine")

	r = env.h.gallery(ctx, opts(stringOpt("show", "s1")))
	require.Len(t, r.embeds, 1)
	assert.Equal(t, "https://cdn.example/s1.png", r.embeds[0].Image.URL)

	r = env.h.gallery(ctx, opts(stringOpt("remove", "s1")))
	assert.Equal(t, "Removed shot `s1`.", r.content)
	assert.Len(t, env.coordinator.Gallery(), 1)

	r = env.h.gallery(ctx, opts(stringOpt("remove", "s1")))
	assert.Equal(t, "No shot with ID `s1`.", r.content)
}

func TestDecodeDataURL(t *testing.T) {
	mimeType, data, err := decodeDataURL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg")))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Equal(t, []byte("jpeg"), data)

	_, _, err = decodeDataURL("data:text/plain,hello")
	assert.Error(t, err)
}

func TestApplicationCommandsUsePrefix(t *testing.T) {
	commands := applicationCommands("dev_")

	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.Name)
	}

	assert.Equal(t, []string{"dev_scene", "dev_light", "dev_generate", "dev_export", "dev_import", "dev_gallery"}, names)
}
