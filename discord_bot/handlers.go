package discord_bot

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"net/http"
	"strings"

	"previz_studio/camera_rig"
	"previz_studio/capture_pipeline"
	"previz_studio/clock"
	"previz_studio/color_engine"
	"previz_studio/entities"
	"previz_studio/frame_encoder"
	"previz_studio/generation_coordinator"
	"previz_studio/generation_engine"
	"previz_studio/persistence"
	"previz_studio/png_scene_info"
	"previz_studio/repositories"
	"previz_studio/repositories/session_settings"
	"previz_studio/scene_state"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	maxImportBytes   = 16 << 20
	galleryListLimit = 10
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Previewer renders the live stage for scene replies.
type Previewer interface {
	RenderFrame() error
	Preview() (image.Image, error)
}

type reply struct {
	content string
	files   []*discordgo.File
	embeds  []*discordgo.MessageEmbed
}

type optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptionMap(options []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	m := make(optionMap, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}

	return m
}

func (o optionMap) string(name string) (string, bool) {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}

	value := strings.TrimSpace(opt.StringValue())

	return value, value != ""
}

func (o optionMap) number(name string) (float64, bool) {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionNumber {
		return 0, false
	}

	return opt.FloatValue(), true
}

type handlers struct {
	store         scene_state.Store
	coordinator   generation_coordinator.Coordinator
	sessionRepo   session_settings.Repository
	previewer     Previewer
	encoder       frame_encoder.Encoder
	credentials   func(engine entities.EngineKind) string
	defaultEngine entities.EngineKind
	sessionID     string
	httpClient    *http.Client
	clock         clock.Clock
}

func (h *handlers) scene(ctx context.Context, opts optionMap) reply {
	var changes []string

	if preset, ok := opts.string("preset"); ok {
		if err := h.store.ApplyPreset(preset); err != nil {
			return errorReply(err)
		}

		changes = append(changes, fmt.Sprintf("Applied %s lighting.", preset))
	}

	field, hasField := opts.string("field")
	value, hasValue := opts.string("value")

	if hasField != hasValue {
		return reply{content: "Both a field and a value are needed to change the scene."}
	}

	if hasField {
		if err := h.store.SetField(field, value); err != nil {
			return errorReply(err)
		}

		changes = append(changes, fmt.Sprintf("Set %s to %s.", field, value))
	}

	if m, ok := opts.string("mode"); ok {
		mode, err := entities.ParseControlMode(m)
		if err != nil {
			return errorReply(err)
		}

		if err = h.store.SetMode(mode); err != nil {
			return errorReply(err)
		}

		changes = append(changes, fmt.Sprintf("Switched to %s.", mode))
	}

	if degrees, ok := opts.number("orbit"); ok {
		h.store.SetOrbitAzimuth(degrees * math.Pi / 180)

		changes = append(changes, fmt.Sprintf("Orbited to %.0f°.", degrees))
	}

	if len(changes) > 0 {
		h.saveScene(ctx)
	}

	r := reply{content: strings.Join(append(changes, h.summary()), "\n")}
	h.attachPreview(&r)

	return r
}

func (h *handlers) light(ctx context.Context, opts optionMap) reply {
	roleValue, _ := opts.string("role")
	field, _ := opts.string("field")
	value, _ := opts.string("value")

	role, err := entities.ParseLightRole(roleValue)
	if err != nil {
		return errorReply(err)
	}

	if err = h.store.SetLightField(role, field, value); err != nil {
		return errorReply(err)
	}

	h.saveScene(ctx)

	params := h.store.Get()

	r := reply{content: fmt.Sprintf("Set %s light %s to %s.\n%s", role, field, value, describeLight(role, *params.Light(role)))}
	h.attachPreview(&r)

	return r
}

func (h *handlers) generate(ctx context.Context, opts optionMap) reply {
	settings := h.settings(ctx)

	engine := h.defaultEngine
	if settings.Engine != "" {
		engine = settings.Engine
	}

	if value, ok := opts.string("engine"); ok {
		parsed, err := entities.ParseEngineKind(value)
		if err != nil {
			return errorReply(err)
		}

		engine = parsed
	}

	credential, hasCredential := opts.string("credential")

	switch {
	case hasCredential:
		settings.Engine = engine
		settings.Credential = credential
		h.saveSettings(ctx, settings)
	case settings.Engine == engine && settings.Credential != "":
		credential = settings.Credential
	case h.credentials != nil:
		credential = h.credentials(engine)
	}

	shot, err := h.coordinator.Generate(ctx, engine, credential)
	if err != nil {
		return errorReply(err)
	}

	return h.shotReply(fmt.Sprintf("Shot `%s` from %s.", shot.ID, shot.Engine), shot)
}

func (h *handlers) export(opts optionMap) reply {
	if id, ok := opts.string("shot"); ok {
		shot, found := h.coordinator.Shot(id)
		if !found {
			return reply{content: fmt.Sprintf("No shot with ID `%s`.", id)}
		}

		data, err := persistence.ExportShot(*shot)
		if err != nil {
			return errorReply(err)
		}

		return reply{
			content: fmt.Sprintf("Scene for shot `%s`.", shot.ID),
			files:   []*discordgo.File{jsonFile(persistence.ShotFilename(*shot, "json"), data)},
		}
	}

	data, err := persistence.Export(h.currentSession())
	if err != nil {
		return errorReply(err)
	}

	return reply{
		content: "Session exported.",
		files:   []*discordgo.File{jsonFile(persistence.SessionFilename(h.clock.Now()), data)},
	}
}

func (h *handlers) importFile(ctx context.Context, url string) reply {
	if url == "" {
		return reply{content: "Attach a session JSON or a shot PNG."}
	}

	data, err := h.fetch(ctx, url)
	if err != nil {
		return errorReply(err)
	}

	var content string

	if bytes.HasPrefix(data, pngSignature) {
		content, err = h.importPNG(data)
	} else {
		content, err = h.importSession(data)
	}

	if err != nil {
		return errorReply(err)
	}

	h.saveScene(ctx)

	r := reply{content: content + "\n" + h.summary()}
	h.attachPreview(&r)

	return r
}

func (h *handlers) importPNG(data []byte) (string, error) {
	extractor, err := png_scene_info.New(png_scene_info.Config{PngData: data})
	if err != nil {
		return "", err
	}

	params, err := extractor.ExtractScene()
	if err != nil {
		return "", err
	}

	if err = h.store.ReplaceAll(*params); err != nil {
		return "", err
	}

	return "Loaded the scene from the shot.", nil
}

func (h *handlers) importSession(data []byte) (string, error) {
	session, err := persistence.Import(data, h.currentSession())
	if err != nil {
		return "", err
	}

	if err = h.store.ReplaceAll(session.SceneParams); err != nil {
		return "", err
	}

	if err = h.store.SetActiveLight(session.ActiveLight); err != nil {
		return "", err
	}

	if err = h.store.SetMode(session.Mode); err != nil {
		return "", err
	}

	return "Session imported.", nil
}

func (h *handlers) gallery(ctx context.Context, opts optionMap) reply {
	if id, ok := opts.string("remove"); ok {
		err := h.coordinator.RemoveShot(ctx, id)
		if repositories.IsNotFound(err) {
			return reply{content: fmt.Sprintf("No shot with ID `%s`.", id)}
		}

		if err != nil {
			return errorReply(err)
		}

		return reply{content: fmt.Sprintf("Removed shot `%s`.", id)}
	}

	if id, ok := opts.string("show"); ok {
		shot, found := h.coordinator.Shot(id)
		if !found {
			return reply{content: fmt.Sprintf("No shot with ID `%s`.", id)}
		}

		return h.shotReply(fmt.Sprintf("Shot `%s`.", shot.ID), shot)
	}

	shots := h.coordinator.Gallery()
	if len(shots) == 0 {
		return reply{content: "The gallery is empty. Use /generate to add a shot."}
	}

	lines := []string{fmt.Sprintf("%d shots, newest first:", len(shots))}

	for i, shot := range shots {
		if i == galleryListLimit {
			lines = append(lines, fmt.Sprintf("...and %d more.", len(shots)-galleryListLimit))
			break
		}

		lines = append(lines, fmt.Sprintf("`%s` %s, %s, %s <t:%d:R>",
			shot.ID, engineLabel(shot.Engine), shot.Params.ShotSize, shot.Params.VisualStyle, shot.Timestamp/1000))
	}

	return reply{content: strings.Join(lines, "\n")}
}

func engineLabel(engine entities.EngineKind) string {
	if engine == "" {
		return "unknown engine"
	}

	return string(engine)
}

// shotReply attaches inline images with the scene embedded, and links remote ones.
func (h *handlers) shotReply(content string, shot *entities.GeneratedShot) reply {
	r := reply{content: content + "\n" + generation_engine.StudioPrompt(shot.Params)}

	if !strings.HasPrefix(shot.ImageURL, "data:") {
		r.embeds = []*discordgo.MessageEmbed{{
			Title: shot.ID,
			URL:   shot.ImageURL,
			Image: &discordgo.MessageEmbedImage{URL: shot.ImageURL},
		}}

		return r
	}

	mimeType, data, err := decodeDataURL(shot.ImageURL)
	if err != nil {
		log.Printf("Error decoding shot image: %v", err)

		return r
	}

	ext := "jpg"

	if mimeType == "image/png" {
		ext = "png"

		embedded, err := png_scene_info.Embed(data, shot.Params)
		if err != nil {
			log.Printf("Error embedding scene in shot %s: %v", shot.ID, err)
		} else {
			data = embedded
		}
	}

	r.files = append(r.files, &discordgo.File{
		Name:        persistence.ShotFilename(*shot, ext),
		ContentType: mimeType,
		Reader:      bytes.NewReader(data),
	})

	return r
}

func decodeDataURL(url string) (string, []byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(url, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, errors.New("unsupported data URL")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}

	return strings.TrimSuffix(meta, ";base64"), data, nil
}

func (h *handlers) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment download failed: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImportBytes+1))
	if err != nil {
		return nil, err
	}

	if len(data) > maxImportBytes {
		return nil, errors.New("attachment is too large")
	}

	return data, nil
}

func (h *handlers) currentSession() entities.Session {
	session := entities.DefaultSession()
	session.SceneParams = h.store.Get()
	session.Mode = h.store.Mode()
	session.ActiveLight = h.store.ActiveLight()
	session.Gallery = h.coordinator.Gallery()

	return session.Clone()
}

func (h *handlers) settings(ctx context.Context) *entities.SessionSettings {
	if h.sessionRepo != nil {
		settings, err := h.sessionRepo.GetBySessionID(ctx, h.sessionID)
		if err == nil {
			return settings
		}

		if !repositories.IsNotFound(err) {
			log.Printf("Error getting session settings: %v", err)
		}
	}

	return &entities.SessionSettings{
		SessionID: h.sessionID,
		Engine:    h.defaultEngine,
		Scene:     h.store.Get(),
	}
}

func (h *handlers) saveScene(ctx context.Context) {
	settings := h.settings(ctx)
	settings.Scene = h.store.Get()

	h.saveSettings(ctx, settings)
}

func (h *handlers) saveSettings(ctx context.Context, settings *entities.SessionSettings) {
	if h.sessionRepo == nil {
		return
	}

	_, err := h.sessionRepo.Upsert(ctx, settings)
	if err != nil {
		log.Printf("Error saving session settings: %v", err)
	}
}

func (h *handlers) attachPreview(r *reply) {
	if h.previewer == nil || h.encoder == nil {
		return
	}

	if err := h.previewer.RenderFrame(); err != nil {
		log.Printf("Error rendering preview: %v", err)
		return
	}

	img, err := h.previewer.Preview()
	if err != nil {
		log.Printf("Error reading preview: %v", err)
		return
	}

	buf, err := h.encoder.EncodePNG(h.encoder.Fit(img))
	if err != nil {
		log.Printf("Error encoding preview: %v", err)
		return
	}

	r.files = append(r.files, &discordgo.File{
		Name:        "preview.png",
		ContentType: "image/png",
		Reader:      buf,
	})
}

func (h *handlers) summary() string {
	params := h.store.Get()

	lines := []string{
		fmt.Sprintf("**%s** (%s)", params.SubjectDescription, params.SubjectModel),
		fmt.Sprintf("Camera: %s, %s, %s lens (%.0f° FOV)",
			params.ShotSize, params.CameraAngle, params.LensType, camera_rig.FOV(params.LensType)),
		describeLight(entities.RoleKey, params.KeyLight),
		describeLight(entities.RoleFill, params.FillLight),
		fmt.Sprintf("Style: %s. Mode: %s, active light: %s.", params.VisualStyle, h.store.Mode(), h.store.ActiveLight()),
	}

	return strings.Join(lines, "\n")
}

func describeLight(role entities.LightRole, l entities.LightSettings) string {
	name := "Key"
	if role == entities.RoleFill {
		name = "Fill"
	}

	if !l.Enabled {
		return name + ": off"
	}

	return fmt.Sprintf("%s: %dK %s, %s gel, %.0f%% at (%.1f, %.1f, %.1f)",
		name, l.ColorTemp, color_engine.TemperatureDescription(l.ColorTemp), color_engine.GelName(l.Gel),
		l.Intensity*100, l.Position.X, l.Position.Y, l.Position.Z)
}

func jsonFile(name string, data []byte) *discordgo.File {
	return &discordgo.File{
		Name:        name,
		ContentType: "application/json",
		Reader:      bytes.NewReader(data),
	}
}

func errorReply(err error) reply {
	var transportErr *generation_engine.TransportError

	switch {
	case errors.Is(err, generation_coordinator.ErrBusy):
		return reply{content: "A generation is already in progress. Try again when it finishes."}
	case errors.Is(err, generation_engine.ErrMissingCredential):
		return reply{content: "No API key is set for that engine. Pass one with the credential option."}
	case errors.Is(err, capture_pipeline.ErrNotReady):
		return reply{content: "The stage is not ready yet."}
	case errors.Is(err, generation_engine.ErrEmptyResult):
		return reply{content: "The engine returned no image."}
	case errors.As(err, &transportErr):
		return reply{content: fmt.Sprintf("%s request failed with status %d.", transportErr.Engine, transportErr.Status)}
	case errors.Is(err, context.DeadlineExceeded):
		return reply{content: "The generation timed out."}
	default:
		return reply{content: fmt.Sprintf("Couldn't do that: %v", err)}
	}
}
