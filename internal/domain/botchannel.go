package domain

// BotChannel is the text channel a guild uses for bot announcements.
type BotChannel struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
}
