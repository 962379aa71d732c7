package discord_bot

import (
	"github.com/bwmarrin/discordgo"

	"previz_studio/entities"
	"previz_studio/scene_state"
)

const (
	sceneCommand    = "scene"
	lightCommand    = "light"
	generateCommand = "generate"
	exportCommand   = "export"
	importCommand   = "import"
	galleryCommand  = "gallery"
)

func stringChoices[T ~string](values []T) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(values))

	for _, v := range values {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: string(v), Value: string(v)})
	}

	return choices
}

func presetChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(scene_state.LightingPresets))

	for _, p := range scene_state.LightingPresets {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: p.Name, Value: p.Name})
	}

	return choices
}

var sceneFields = []string{"subjectDescription", "subjectModel", "cameraAngle", "lensType", "shotSize", "visualStyle"}

var lightFields = []string{"intensity", "colorTemp", "gel", "enabled", "position", "x", "y", "z"}

func applicationCommands(prefix string) []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        prefix + sceneCommand,
			Description: "Show the scene, or change a framing or subject field",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "field",
					Description: "Scene field to change",
					Choices:     stringChoices(sceneFields),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "New value, e.g. \"Close Up\" or \"85mm\"",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "preset",
					Description: "Apply a lighting preset",
					Choices:     presetChoices(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "Gizmo mode",
					Choices:     stringChoices(entities.ControlModes),
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "orbit",
					Description: "Orbit azimuth in degrees",
				},
			},
		},
		{
			Name:        prefix + lightCommand,
			Description: "Change the key or fill light",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "role",
					Description: "Which light",
					Required:    true,
					Choices:     stringChoices(entities.LightRoles),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "field",
					Description: "Light field to change",
					Required:    true,
					Choices:     stringChoices(lightFields),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "New value, e.g. 3200, Teal, #ff8800, -2,2.5,-2",
					Required:    true,
				},
			},
		},
		{
			Name:        prefix + generateCommand,
			Description: "Capture the stage and generate a still",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "engine",
					Description: "Generation engine",
					Choices:     stringChoices(entities.EngineKinds),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "credential",
					Description: "API key for the engine; remembered for this server",
				},
			},
		},
		{
			Name:        prefix + exportCommand,
			Description: "Download the session, or one shot's scene, as JSON",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "shot",
					Description: "Shot ID",
				},
			},
		},
		{
			Name:        prefix + importCommand,
			Description: "Load a session JSON or a shot PNG",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "file",
					Description: "Session JSON or shot PNG",
					Required:    true,
				},
			},
		},
		{
			Name:        prefix + galleryCommand,
			Description: "List, show or remove generated shots",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "show",
					Description: "Shot ID to show",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "remove",
					Description: "Shot ID to remove",
				},
			},
		},
	}
}
