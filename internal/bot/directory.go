package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// RESTLookup fetches guilds and channels the state cache has not seen yet.
type RESTLookup interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// StateDirectory answers Directory questions from the gateway state cache,
// falling back to REST lookups. Ready fires before guild channels arrive,
// so the fallback matters at startup.
type StateDirectory struct {
	state *discordgo.State
	rest  RESTLookup
}

// NewStateDirectory creates a directory over state. rest may be nil.
func NewStateDirectory(state *discordgo.State, rest RESTLookup) *StateDirectory {
	return &StateDirectory{state: state, rest: rest}
}

func (d *StateDirectory) guild(guildID string) (*discordgo.Guild, error) {
	if g, err := d.state.Guild(guildID); err == nil {
		return g, nil
	}
	if d.rest == nil {
		return nil, discordgo.ErrStateNotFound
	}
	return d.rest.Guild(guildID)
}

func (d *StateDirectory) channel(channelID string) (*discordgo.Channel, error) {
	if c, err := d.state.Channel(channelID); err == nil {
		return c, nil
	}
	if d.rest == nil {
		return nil, discordgo.ErrStateNotFound
	}
	return d.rest.Channel(channelID)
}

// GuildOwnerID returns the id of the guild's owner.
func (d *StateDirectory) GuildOwnerID(ctx context.Context, guildID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g, err := d.guild(guildID)
	if err != nil {
		return "", fmt.Errorf("guild %s: %w", guildID, err)
	}
	return g.OwnerID, nil
}

// GuildExists reports whether the bot can see guildID. Failed REST lookups
// are returned as errors rather than as a missing guild.
func (d *StateDirectory) GuildExists(guildID string) (bool, error) {
	_, err := d.guild(guildID)
	return lookupResult(err)
}

// TextChannelExists reports whether channelID is a text channel of guildID.
func (d *StateDirectory) TextChannelExists(guildID, channelID string) (bool, error) {
	c, err := d.channel(channelID)
	if ok, err := lookupResult(err); !ok {
		return false, err
	}
	return c.GuildID == guildID && isTextChannel(c.Type), nil
}

// HasTextChannel is TextChannelExists with failed lookups treated as absent.
func (d *StateDirectory) HasTextChannel(guildID, channelID string) bool {
	ok, _ := d.TextChannelExists(guildID, channelID)
	return ok
}

// lookupResult separates "Discord does not know this id" from lookups that
// failed for another reason.
func lookupResult(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return false, nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound, http.StatusForbidden:
			return false, nil
		}
	}
	return false, err
}

// DisplayName returns the member's user name, or userID when the member is unknown.
func (d *StateDirectory) DisplayName(guildID, userID string) string {
	m, err := d.state.Member(guildID, userID)
	if err != nil || m.User == nil {
		return userID
	}
	return m.User.String()
}

func isTextChannel(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
		return true
	default:
		return false
	}
}
