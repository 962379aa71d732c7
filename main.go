package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"previz_studio/asset_loader"
	"previz_studio/capture_pipeline"
	"previz_studio/config"
	"previz_studio/databases/sqlite"
	"previz_studio/discord_bot"
	"previz_studio/entities"
	"previz_studio/frame_encoder"
	"previz_studio/generation_coordinator"
	"previz_studio/generation_engine"
	"previz_studio/repositories"
	"previz_studio/repositories/generated_shots"
	"previz_studio/repositories/session_settings"
	"previz_studio/scene_state"
	"previz_studio/stage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Bot parameters
var (
	configFile         = flag.String("config", "", "Path to a YAML config file. Environment variables take precedence")
	removeCommandsFlag = flag.Bool("remove", false, "Delete all commands when bot exits")
	devModeFlag        = flag.Bool("dev", false, "Start in development mode, using \"dev_\" prefixed commands instead")
	frameInterval      = flag.Duration("frame-interval", time.Second, "Interval between stage renders")
)

// globalSession keys settings and the gallery when commands are registered globally.
const globalSession = "global"

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			log.Error().Err(err).Msg("Invalid configuration")
		}

		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}

	zerolog.SetGlobalLevel(level)

	if *devModeFlag {
		log.Printf("Starting in development mode.. all commands prefixed with \"dev_\"")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionID := cfg.DiscordGuild
	if sessionID == "" {
		sessionID = globalSession
	}

	sqliteDB, err := sqlite.New(ctx, sqlite.Config{Filename: cfg.DBFile})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sqlite database")
	}

	defer sqliteDB.Close()

	shotRepo, err := generated_shots.NewRepository(&generated_shots.Config{DB: sqliteDB})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create generated shot repository")
	}

	sessionRepo, err := session_settings.NewRepository(&session_settings.Config{DB: sqliteDB})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session settings repository")
	}

	var initial *entities.SceneParams

	settings, err := sessionRepo.GetBySessionID(ctx, sessionID)

	switch {
	case err == nil:
		initial = &settings.Scene
	case !repositories.IsNotFound(err):
		log.Printf("Error loading session settings, starting from the default scene: %v", err)
	}

	loader, err := asset_loader.New(asset_loader.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create asset loader")
	}

	st := stage.New()
	st.Resize(cfg.PlateWidth, cfg.PlateHeight)

	store, err := scene_state.New(scene_state.Config{
		Loader:   loader,
		Renderer: st,
		Initial:  initial,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scene state")
	}

	defer store.Close()

	store.ReloadModel(ctx)

	encoder, err := frame_encoder.New(frame_encoder.Config{MaxEdge: cfg.PlateMaxEdge})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create frame encoder")
	}

	pipeline, err := capture_pipeline.New(capture_pipeline.Config{
		Stage:   st,
		State:   store,
		Encoder: encoder,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create capture pipeline")
	}

	engines, err := newEngines(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create generation engines")
	}

	metrics := generation_coordinator.NewMetrics()

	err = metrics.Register(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	coordinator, err := generation_coordinator.New(generation_coordinator.Config{
		Pipeline:  pipeline,
		State:     store,
		Engines:   engines,
		ShotRepo:  shotRepo,
		SessionID: sessionID,
		Timeout:   cfg.GenerationTimeout,
		Metrics:   metrics,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create generation coordinator")
	}

	coordinator.OnStatusChange(func(status generation_coordinator.Status, err error) {
		if err != nil {
			log.Error().Err(err).Str("status", status.String()).Msg("Generation failed")
			return
		}

		log.Debug().Str("status", status.String()).Msg("Generation status changed")
	})

	err = coordinator.LoadGallery(ctx)
	if err != nil {
		log.Printf("Error loading gallery: %v", err)
	}

	if cfg.MetricsAddr != "" {
		metricsServer := serveMetrics(cfg.MetricsAddr)

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	go st.Run(ctx, *frameInterval)

	defaultEngine, _ := entities.ParseEngineKind(cfg.DefaultEngine)

	bot, err := discord_bot.New(discord_bot.Config{
		DevelopmentMode: *devModeFlag,
		BotToken:        cfg.DiscordToken,
		GuildID:         cfg.DiscordGuild,
		RemoveCommands:  *removeCommandsFlag,
		Store:           store,
		Coordinator:     coordinator,
		SessionRepo:     sessionRepo,
		SessionID:       sessionID,
		Previewer:       st,
		Encoder:         encoder,
		DefaultEngine:   defaultEngine,
		Credentials:     cfg.Credential,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating Discord bot")
	}

	bot.Start(ctx)

	log.Info().Msg("Gracefully shutting down.")
}

func newEngines(cfg *config.Config) ([]generation_engine.Engine, error) {
	bria, err := generation_engine.NewBria(generation_engine.BriaConfig{Host: cfg.BriaURL})
	if err != nil {
		return nil, err
	}

	fal, err := generation_engine.NewFal(generation_engine.FalConfig{Host: cfg.FalURL})
	if err != nil {
		return nil, err
	}

	gemini, err := generation_engine.NewGemini(generation_engine.GeminiConfig{
		Host:  cfg.GeminiURL,
		Model: cfg.GeminiModel,
	})
	if err != nil {
		return nil, err
	}

	return []generation_engine.Engine{bria, fal, gemini}, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	return server
}
