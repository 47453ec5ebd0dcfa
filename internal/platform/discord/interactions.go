package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/zulandar/fireteam/internal/platform"
)

// Button custom IDs on the raid sign-up message.
const (
	buttonJoin   = "joinRaid"
	buttonLeave  = "leaveRaid"
	buttonCancel = "cancelRaid"
)

// raidCommand is the /raid slash command definition.
var raidCommand = &discordgo.ApplicationCommand{
	Name:        "raid",
	Description: "Schedule a Destiny 2 activity that starts in X hours and Y minutes",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "activity",
			Description:  "Type or pick the activity",
			Required:     true,
			Autocomplete: true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "hours",
			Description: "Hours until start (0-23)",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "minutes",
			Description: "Minutes until start (0-59)",
			Required:    true,
		},
	},
}

// registerCommands overwrites the guild's application commands with /raid.
func (a *Adapter) registerCommands(appID string) {
	if _, err := a.sess.ApplicationCommandBulkOverwrite(appID, a.guildID, []*discordgo.ApplicationCommand{raidCommand}); err != nil {
		log.Printf("discord: register commands: %v", err)
		return
	}
	log.Printf("discord: /raid registered in guild %s", a.guildID)
}

// handleInteraction converts a Discord interaction into a structured
// request and queues it for the router. The interaction is parked in the
// pending map until Reply/Acknowledge/Suggest responds to it.
func (a *Adapter) handleInteraction(i *discordgo.InteractionCreate) {
	req, ok := a.buildRequest(i)
	if !ok {
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.pending[req.ID] = i.Interaction
	a.mu.Unlock()

	select {
	case a.requests <- req:
	default:
		// Router is saturated; drop rather than block the gateway goroutine.
		a.mu.Lock()
		delete(a.pending, req.ID)
		a.mu.Unlock()
		log.Printf("discord: request queue full, dropping %s from %s", req.Kind, req.UserID)
	}
}

// buildRequest maps the three interaction flavors (slash command,
// autocomplete, button press) to platform requests.
func (a *Adapter) buildRequest(i *discordgo.InteractionCreate) (platform.Request, bool) {
	req := platform.Request{
		ID:        i.ID,
		ChannelID: i.ChannelID,
	}
	if user := interactionUser(i); user != nil {
		req.UserID = user.ID
		req.UserName = user.Username
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.Name != raidCommand.Name {
			return platform.Request{}, false
		}
		req.Kind = platform.KindCreate
		for _, opt := range data.Options {
			switch opt.Name {
			case "activity":
				req.Activity = opt.StringValue()
			case "hours":
				req.Hours = int(opt.IntValue())
			case "minutes":
				req.Minutes = int(opt.IntValue())
			}
		}
		return req, true

	case discordgo.InteractionApplicationCommandAutocomplete:
		data := i.ApplicationCommandData()
		if data.Name != raidCommand.Name {
			return platform.Request{}, false
		}
		req.Kind = platform.KindAutocomplete
		for _, opt := range data.Options {
			if opt.Name == "activity" && opt.Focused {
				req.Query = opt.StringValue()
			}
		}
		return req, true

	case discordgo.InteractionMessageComponent:
		if i.Message == nil {
			return platform.Request{}, false
		}
		req.DisplayID = i.Message.ID
		switch i.MessageComponentData().CustomID {
		case buttonJoin:
			req.Kind = platform.KindJoin
		case buttonLeave:
			req.Kind = platform.KindLeave
		case buttonCancel:
			req.Kind = platform.KindCancel
		default:
			return platform.Request{}, false
		}
		return req, true
	}

	return platform.Request{}, false
}

// interactionUser returns the invoking user for guild or DM interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// takePending claims the parked interaction for a request ID.
func (a *Adapter) takePending(requestID string) (*discordgo.Interaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	interaction, ok := a.pending[requestID]
	if !ok {
		return nil, fmt.Errorf("discord: no pending interaction %s", requestID)
	}
	delete(a.pending, requestID)
	return interaction, nil
}

// Reply sends an ephemeral notice in response to a request.
func (a *Adapter) Reply(ctx context.Context, requestID, text string) error {
	interaction, err := a.takePending(requestID)
	if err != nil {
		return err
	}
	err = a.retryOnRateLimit(ctx, func() error {
		return a.sess.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: text,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
	})
	if err != nil {
		return fmt.Errorf("discord: reply: %w", err)
	}
	return nil
}

// Acknowledge silently acknowledges a button press.
func (a *Adapter) Acknowledge(ctx context.Context, requestID string) error {
	interaction, err := a.takePending(requestID)
	if err != nil {
		return err
	}
	err = a.retryOnRateLimit(ctx, func() error {
		return a.sess.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
	})
	if err != nil {
		return fmt.Errorf("discord: acknowledge: %w", err)
	}
	return nil
}

// Suggest answers an autocomplete request with up to 25 choices.
func (a *Adapter) Suggest(ctx context.Context, requestID string, choices []string) error {
	interaction, err := a.takePending(requestID)
	if err != nil {
		return err
	}
	resp := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(choices))
	for _, c := range choices {
		resp = append(resp, &discordgo.ApplicationCommandOptionChoice{Name: c, Value: c})
	}
	err = a.retryOnRateLimit(ctx, func() error {
		return a.sess.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionApplicationCommandAutocompleteResult,
			Data: &discordgo.InteractionResponseData{Choices: resp},
		})
	})
	if err != nil {
		return fmt.Errorf("discord: suggest: %w", err)
	}
	return nil
}

// buildControls translates the controls tri-state into message components.
func buildControls(controls platform.Controls) []discordgo.MessageComponent {
	if controls == platform.ControlsNone {
		return []discordgo.MessageComponent{}
	}
	disabled := controls == platform.ControlsDisabled
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{CustomID: buttonJoin, Label: "Join", Style: discordgo.PrimaryButton, Disabled: disabled},
				discordgo.Button{CustomID: buttonLeave, Label: "Leave", Style: discordgo.SecondaryButton, Disabled: disabled},
				discordgo.Button{CustomID: buttonCancel, Label: "Cancel", Style: discordgo.DangerButton, Disabled: disabled},
			},
		},
	}
}
