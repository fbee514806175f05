package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/logging"
)

const rateLimitBackoff = 2 * time.Second

type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts closed poll results to a Discord channel.
type Announcer struct {
	sender    messageSender
	channelID string
	backoff   time.Duration
}

// NewAnnouncer creates a REST-only client; no gateway connection is opened.
func NewAnnouncer(token, channelID string) (*Announcer, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord: token and channel id are required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	return &Announcer{sender: s, channelID: channelID, backoff: rateLimitBackoff}, nil
}

func (a *Announcer) AnnouncePollResult(ctx context.Context, ann council.Announcement) error {
	msg := &discordgo.MessageSend{
		Content:         FormatPollResult(ann),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	_, err := a.sender.ChannelMessageSendComplex(a.channelID, msg, discordgo.WithContext(ctx))
	if logging.IsRateLimit(err) {
		log.Printf("discord: rate limited, retrying in %v", a.backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.backoff):
		}
		_, err = a.sender.ChannelMessageSendComplex(a.channelID, msg, discordgo.WithContext(ctx))
	}
	if err != nil {
		return fmt.Errorf("discord: send poll result: %w", err)
	}
	return nil
}

// maxTitleLen keeps the rendered box well under MaxDiscordMessageLen.
const maxTitleLen = 300

// FormatPollResult renders an announcement as a Discord message: the session
// name in bold followed by a framed result block.
func FormatPollResult(ann council.Announcement) string {
	var head strings.Builder
	if ann.SessionName != "" {
		fmt.Fprintf(&head, "**%s**\n", truncateForDiscord(ann.SessionName, maxTitleLen))
	}
	title := ""
	if ann.ItemTitle != "" {
		title = fmt.Sprintf("Punkt %d: %s", ann.ItemOrdinal, truncateForDiscord(ann.ItemTitle, maxTitleLen))
	}
	poll := truncateForDiscord(ann.PollName, maxTitleLen)

	var body strings.Builder
	r := ann.Result
	if r.Withheld || r.For == nil {
		fmt.Fprintf(&body, "Głosowanie \"%s\": oddano %d głosów", poll, r.Cast)
		return head.String() + renderBox(title, body.String())
	}

	outcome := "ODRZUCONA"
	if r.Passed != nil && *r.Passed {
		outcome = "PRZYJĘTA"
	}
	fmt.Fprintf(&body, "Głosowanie \"%s\": uchwała %s\n", poll, outcome)
	fmt.Fprintf(&body, "Za: %d | Przeciw: %d | Wstrzymało się: %d", *r.For, *r.Against, *r.Abstain)
	if r.Threshold != nil {
		fmt.Fprintf(&body, " (wymagane %d)", *r.Threshold)
	}
	return head.String() + renderBox(title, body.String())
}
