package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/microcosm-cc/bluemonday"
)

// Event describes a completed cycle that spent a victory token.
type Event struct {
	CycleID    string
	MissionID  string
	Difficulty string
	PuzzleType string
	Level      int
	Energy     int
}

// Notifier is told about level-ups.
type Notifier interface {
	LevelUp(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) LevelUp(context.Context, Event) error { return nil }

// Sender is the part of *discordgo.Session used here.
type Sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts level-ups to a channel.
type Discord struct {
	sender    Sender
	channelID string
	policy    *bluemonday.Policy
}

// NewDiscord creates a REST-only discord session; no gateway connection is opened.
func NewDiscord(token, channelID string) (*Discord, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(channelID) == "" {
		return nil, errors.New("notify: discord token and channel id are required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("notify: discord session: %w", err)
	}
	return NewDiscordWithSender(session, channelID), nil
}

// NewDiscordWithSender wires an existing sender.
func NewDiscordWithSender(sender Sender, channelID string) *Discord {
	return &Discord{
		sender:    sender,
		channelID: channelID,
		policy:    bluemonday.StrictPolicy(),
	}
}

func (d *Discord) LevelUp(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.sender.ChannelMessageSend(d.channelID, d.format(ev), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("notify: discord send: %w", err)
	}
	return nil
}

func (d *Discord) format(ev Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mission %s solved", d.clean(ev.MissionID))
	if ev.Difficulty != "" || ev.PuzzleType != "" {
		fmt.Fprintf(&sb, " (%s %s)", d.clean(ev.Difficulty), d.clean(ev.PuzzleType))
	}
	if ev.Level > 0 {
		fmt.Fprintf(&sb, ", character is now level %d", ev.Level)
	}
	fmt.Fprintf(&sb, ", energy %d", ev.Energy)
	if ev.CycleID != "" {
		fmt.Fprintf(&sb, " [cycle %s]", ev.CycleID)
	}
	return sb.String()
}

// clean strips markup and Discord mentions from server-supplied text.
func (d *Discord) clean(s string) string {
	s = d.policy.Sanitize(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "@", "@\u200b")
}
