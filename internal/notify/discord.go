// Package notify posts evaluation decisions to chat channels.
package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"dealscout/internal/decision"
	"dealscout/internal/format"
	"dealscout/internal/report"
)

const (
	colorYes     = 0x2ECC71
	colorNo      = 0xE74C3C
	colorAborted = 0xF39C12

	maxFieldValue = 1024
	maxListed     = 3
)

// Sender delivers one embed to a channel and returns the message ID.
type Sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts decision embeds to a single channel.
type Discord struct {
	sender    Sender
	session   *discordgo.Session
	channelID string
}

// NewDiscord opens a bot session for token.
func NewDiscord(token, channelID string) (*Discord, error) {
	if token == "" || channelID == "" {
		return nil, errors.New("discord: bot token and channel ID are required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{sender: session, session: session, channelID: channelID}, nil
}

// NewDiscordWithSender returns a Discord that sends through s.
func NewDiscordWithSender(s Sender, channelID string) *Discord {
	return &Discord{sender: s, channelID: channelID}
}

// Notify posts the report's decision and returns the message ID.
func (d *Discord) Notify(rep *report.Report) (string, error) {
	msg, err := d.sender.ChannelMessageSendEmbed(d.channelID, BuildEmbed(rep))
	if err != nil {
		return "", fmt.Errorf("discord send: %w", err)
	}
	return msg.ID, nil
}

// Close closes the bot session, if any.
func (d *Discord) Close() {
	if d.session != nil {
		_ = d.session.Close()
	}
}

// BuildEmbed renders the decision summary of rep.
func BuildEmbed(rep *report.Report) *discordgo.MessageEmbed {
	d := rep.Decision
	color := colorNo
	if d.Decision == decision.Yes {
		color = colorYes
	}
	if rep.Aborted {
		color = colorAborted
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Decision", Value: string(d.Decision), Inline: true},
		{Name: "Confidence", Value: format.Score(d.Confidence), Inline: true},
		{Name: "Final score", Value: format.Score(d.ScoreBreakdown.Final), Inline: true},
		{Name: "Market", Value: format.Score(d.ScoreBreakdown.Market), Inline: true},
		{Name: "Competitor", Value: format.Score(d.ScoreBreakdown.Competitor), Inline: true},
		{Name: "Evidence", Value: fmt.Sprintf("%d answered, %d failed", rep.Summary.Succeeded, rep.Summary.Failed), Inline: true},
	}
	if len(d.Risks) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Risks", Value: bullets(d.Risks)})
	}
	if len(d.NextActions) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Next actions", Value: bullets(d.NextActions)})
	}
	if rep.Aborted {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Aborted", Value: cut(rep.AbortReason)})
	}

	title := rep.Startup.Name
	if rep.Startup.Category != "" {
		title += " (" + rep.Startup.Category + ")"
	}
	ts := rep.GeneratedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Fields:    fields,
		Timestamp: ts.UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "dealscout run " + rep.RunID},
	}
}

func bullets(items []string) string {
	if len(items) > maxListed {
		items = append(items[:maxListed:maxListed], fmt.Sprintf("and %d more", len(items)-maxListed))
	}
	return cut("- " + strings.Join(items, "\n- "))
}

// cut keeps s within Discord's field limit without folding newlines.
func cut(s string) string {
	r := []rune(s)
	if len(r) <= maxFieldValue {
		return s
	}
	return string(r[:maxFieldValue-3]) + "..."
}
