package discord_bot

import (
	"context"
	"errors"
	"net/http"

	"previz_studio/clock"
	"previz_studio/entities"
	"previz_studio/frame_encoder"
	"previz_studio/generation_coordinator"
	"previz_studio/repositories/session_settings"
	"previz_studio/scene_state"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

type botImpl struct {
	botSession         *discordgo.Session
	guildID            string
	handlers           *handlers
	registeredCommands []*discordgo.ApplicationCommand
	removeCommands     bool
	commandPrefix      string
}

type Config struct {
	DevelopmentMode bool
	BotToken        string
	GuildID         string
	RemoveCommands  bool

	Store       scene_state.Store
	Coordinator generation_coordinator.Coordinator
	// SessionRepo keeps the engine, credential and scene between runs. Optional.
	SessionRepo session_settings.Repository
	SessionID   string
	// Previewer and Encoder attach a stage render to scene replies. Optional.
	Previewer Previewer
	Encoder   frame_encoder.Encoder

	DefaultEngine entities.EngineKind
	// Credentials resolves an engine's configured credential when a session has none.
	Credentials func(engine entities.EngineKind) string
	HTTPClient  *http.Client
	Clock       clock.Clock
}

func New(cfg Config) (Bot, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("missing bot token")
	}

	if cfg.Store == nil {
		return nil, errors.New("missing scene state")
	}

	if cfg.Coordinator == nil {
		return nil, errors.New("missing generation coordinator")
	}

	if cfg.SessionRepo != nil && cfg.SessionID == "" {
		return nil, errors.New("missing session ID")
	}

	defaultEngine := cfg.DefaultEngine
	if defaultEngine == "" {
		defaultEngine = entities.EngineBria
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewClock()
	}

	botSession, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}

	botSession.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})

	err = botSession.Open()
	if err != nil {
		return nil, err
	}

	prefix := ""
	if cfg.DevelopmentMode {
		prefix = "dev_"
	}

	bot := &botImpl{
		botSession: botSession,
		guildID:    cfg.GuildID,
		handlers: &handlers{
			store:         cfg.Store,
			coordinator:   cfg.Coordinator,
			sessionRepo:   cfg.SessionRepo,
			previewer:     cfg.Previewer,
			encoder:       cfg.Encoder,
			credentials:   cfg.Credentials,
			defaultEngine: defaultEngine,
			sessionID:     cfg.SessionID,
			httpClient:    httpClient,
			clock:         clk,
		},
		registeredCommands: make([]*discordgo.ApplicationCommand, 0),
		removeCommands:     cfg.RemoveCommands,
		commandPrefix:      prefix,
	}

	err = bot.addCommands()
	if err != nil {
		return nil, err
	}

	botSession.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}

		bot.processCommand(s, i)
	})

	return bot, nil
}

func (b *botImpl) Start(ctx context.Context) {
	<-ctx.Done()

	err := b.teardown()
	if err != nil {
		log.Printf("Error tearing down bot: %v", err)
	}
}

func (b *botImpl) teardown() error {
	if b.removeCommands {
		for _, v := range b.registeredCommands {
			err := b.botSession.ApplicationCommandDelete(b.botSession.State.User.ID, b.guildID, v.ID)
			if err != nil {
				log.Printf("Cannot delete '%v' command: %v", v.Name, err)
			}
		}
	}

	return b.botSession.Close()
}

func (b *botImpl) addCommands() error {
	for _, command := range applicationCommands(b.commandPrefix) {
		log.Printf("Adding command '%s'...", command.Name)

		cmd, err := b.botSession.ApplicationCommandCreate(b.botSession.State.User.ID, b.guildID, command)
		if err != nil {
			log.Printf("Error creating '%s' command: %v", command.Name, err)

			return err
		}

		b.registeredCommands = append(b.registeredCommands, cmd)
	}

	return nil
}

func (b *botImpl) processCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	opts := newOptionMap(data.Options)
	ctx := context.Background()

	switch data.Name {
	case b.commandPrefix + sceneCommand:
		b.respond(s, i, b.handlers.scene(ctx, opts))
	case b.commandPrefix + lightCommand:
		b.respond(s, i, b.handlers.light(ctx, opts))
	case b.commandPrefix + exportCommand:
		b.respond(s, i, b.handlers.export(opts))
	case b.commandPrefix + galleryCommand:
		b.respond(s, i, b.handlers.gallery(ctx, opts))
	case b.commandPrefix + generateCommand:
		b.deferred(s, i, func() reply {
			return b.handlers.generate(ctx, opts)
		})
	case b.commandPrefix + importCommand:
		url := attachmentURL(data, opts)

		b.deferred(s, i, func() reply {
			return b.handlers.importFile(ctx, url)
		})
	default:
		log.Printf("Unknown command '%v'", data.Name)
	}
}

func attachmentURL(data discordgo.ApplicationCommandInteractionData, opts optionMap) string {
	opt, ok := opts["file"]
	if !ok || data.Resolved == nil {
		return ""
	}

	id, ok := opt.Value.(string)
	if !ok {
		return ""
	}

	attachment, ok := data.Resolved.Attachments[id]
	if !ok {
		return ""
	}

	return attachment.URL
}

func (b *botImpl) respond(s *discordgo.Session, i *discordgo.InteractionCreate, r reply) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: r.content,
			Files:   r.files,
			Embeds:  r.embeds,
		},
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}

// deferred acknowledges the interaction now and edits in fn's reply once it returns.
func (b *botImpl) deferred(s *discordgo.Session, i *discordgo.InteractionCreate, fn func() reply) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)

		return
	}

	go func() {
		r := fn()

		edit := &discordgo.WebhookEdit{
			Content: &r.content,
			Files:   r.files,
		}

		if len(r.embeds) > 0 {
			edit.Embeds = &r.embeds
		}

		_, err := s.InteractionResponseEdit(i.Interaction, edit)
		if err != nil {
			log.Printf("Error editing the interaction response: %v", err)
		}
	}()
}
