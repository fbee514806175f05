package discord

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/esir-council/esir/src/council"
)

type fakeSender struct {
	errs []error
	sent []*discordgo.MessageSend
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, data)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func intp(n int) *int { return &n }

func TestFormatPollResult(t *testing.T) {
	passed := true
	msg := FormatPollResult(council.Announcement{
		SessionName: "XII sesja",
		ItemOrdinal: 2,
		ItemTitle:   "Budżet",
		PollName:    "Uchwała budżetowa",
		Result: council.Result{
			Cast: 16, For: intp(11), Against: intp(4), Abstain: intp(1),
			Passed: &passed, Threshold: intp(11),
		},
	})
	for _, want := range []string{"**XII sesja**", "Punkt 2: Budżet", "PRZYJĘTA", "Za: 11 | Przeciw: 4 | Wstrzymało się: 1", "(wymagane 11)"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestFormatPollResultWithheld(t *testing.T) {
	msg := FormatPollResult(council.Announcement{PollName: "Wybór", Result: council.Result{Cast: 9, Withheld: true}})
	if !strings.Contains(msg, "oddano 9 głosów") || strings.Contains(msg, "Za:") {
		t.Fatalf("withheld result leaked: %q", msg)
	}
}

func TestAnnounceRetriesOnRateLimit(t *testing.T) {
	sender := &fakeSender{errs: []error{errors.New("HTTP 429 Too Many Requests")}}
	a := &Announcer{sender: sender, channelID: "123", backoff: 0}

	err := a.AnnouncePollResult(context.Background(), council.Announcement{PollName: "x", Result: council.Result{Withheld: true}})
	if err != nil {
		t.Fatalf("announce: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sent %d times, want 2", len(sender.sent))
	}
	if sender.sent[0].AllowedMentions == nil {
		t.Fatalf("mentions must be suppressed")
	}
}

func TestAnnounceReportsFailure(t *testing.T) {
	sender := &fakeSender{errs: []error{errors.New("missing access")}}
	a := &Announcer{sender: sender, channelID: "123"}
	if err := a.AnnouncePollResult(context.Background(), council.Announcement{}); err == nil {
		t.Fatal("expected error")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("non rate-limit errors must not be retried")
	}
}

func TestNewAnnouncerValidates(t *testing.T) {
	if _, err := NewAnnouncer("", "1"); err == nil {
		t.Fatal("expected error without token")
	}
	if _, err := NewAnnouncer("token", "1"); err != nil {
		t.Fatalf("new announcer: %v", err)
	}
}

func TestFormatPollResultFitsMessage(t *testing.T) {
	long := strings.Repeat("bardzo długi tytuł uchwały ", 200)
	msg := FormatPollResult(council.Announcement{
		SessionName: long, ItemOrdinal: 1, ItemTitle: long, PollName: long,
		Result: council.Result{Cast: 3, Withheld: true},
	})
	if n := runeLen(msg); n > MaxDiscordMessageLen {
		t.Fatalf("message has %d runes", n)
	}
	if !strings.HasSuffix(msg, "```") {
		t.Fatalf("box not closed: %q", msg[len(msg)-20:])
	}
}

func TestRenderBoxWrapsToWidth(t *testing.T) {
	box := renderBox("Tytuł", strings.Repeat("x", boxInnerWidth+10)+"\nkrótko")
	for _, line := range strings.Split(box, "\n") {
		if strings.HasPrefix(line, "│") && runeLen(line) != boxInnerWidth+2*boxPadding+4 {
			t.Fatalf("line %q has width %d", line, runeLen(line))
		}
	}
	if !strings.Contains(box, "krótko") {
		t.Fatalf("body line missing: %s", box)
	}
}
