package handler

import (
	"kelvinbot/internal/adapters/sender"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

type SelfSetter interface {
	SetSelf(user *discordgo.User)
}

type Discord struct {
	command *Command
	self    SelfSetter
}

func NewDiscord(command *Command, self SelfSetter) *Discord {
	return &Discord{command: command, self: self}
}

func (d *Discord) Ready(_ *discordgo.Session, r *discordgo.Ready) {
	if r == nil || r.User == nil {
		return
	}

	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord session ready")
	d.self.SetSelf(r.User)
}

func (d *Discord) MessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}

	d.command.Submit(sender.DiscordMessage(m.Message))
}
