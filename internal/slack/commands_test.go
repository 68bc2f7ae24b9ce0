package slack

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"

	"example.com/gtm/internal/domain"
)

func command(name, text string) slack.SlashCommand {
	return slack.SlashCommand{Command: name, Text: text, TriggerID: "trigger-1"}
}

func TestHelpCommand(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)

	msg := commander.Handle(context.Background(), command("/gtm-help", ""))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeEphemeral, msg.ResponseType)
	require.Contains(t, msg.Text, "/gtm-add")
}

func TestUnknownCommand(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)

	msg := commander.Handle(context.Background(), command("/gtm-destroy", ""))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeEphemeral, msg.ResponseType)
	require.Contains(t, msg.Text, "Unknown command")
}

func TestAddCommandPipeFields(t *testing.T) {
	service, repo := newTestService(t)
	commander := NewCommander(service, nil, nil)

	msg := commander.Handle(context.Background(), command("/gtm-add", "Test X | | Channel"))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeInChannel, msg.ResponseType)

	created := repo.activities[1]
	require.Equal(t, "Test X", created.Hypothesis)
	require.Nil(t, created.Audience, "blank middle field must stay null")
	require.NotNil(t, created.Channels)
	require.Equal(t, "Channel", *created.Channels)
}

func TestAddCommandRejectsEmptyHypothesis(t *testing.T) {
	service, repo := newTestService(t)
	commander := NewCommander(service, nil, nil)

	msg := commander.Handle(context.Background(), command("/gtm-add", " | Startups | Email"))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeEphemeral, msg.ResponseType)
	require.Contains(t, msg.Text, "Invalid format")
	require.Empty(t, repo.activities)
}

func TestViewCommandNotFound(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)

	msg := commander.Handle(context.Background(), command("/gtm-view", "9999"))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeEphemeral, msg.ResponseType)
	require.Contains(t, msg.Text, "not found")
	require.Contains(t, msg.Text, "9999")
}

func TestViewCommandInvalidID(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)

	msg := commander.Handle(context.Background(), command("/gtm-view", "abc"))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeEphemeral, msg.ResponseType)
	require.Contains(t, msg.Text, "Invalid activity ID")
}

func TestViewCommandPublicKeyword(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)
	activity := seedActivity(t, service, domain.CreateInput{Hypothesis: "Cold email"})

	msg := commander.Handle(context.Background(), command("/gtm-view", "public 1"))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeInChannel, msg.ResponseType)
	require.Contains(t, blocksJSON(t, msg), activity.Hypothesis)
}

func TestListCommandPublicWithFilter(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)
	seedActivity(t, service, domain.CreateInput{Hypothesis: "Cold email blast", Channels: ptr("Email")})
	seedActivity(t, service, domain.CreateInput{Hypothesis: "Conference booth", Channels: ptr("Events")})

	msg := commander.Handle(context.Background(), command("/gtm-list", "public email"))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeInChannel, msg.ResponseType)

	rendered := blocksJSON(t, msg)
	require.Contains(t, rendered, "Cold email blast")
	require.NotContains(t, rendered, "Conference booth")
	require.Contains(t, rendered, "Filtered by: *email*")
}

func TestListCommandDefaultsToPrivate(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)
	seedActivity(t, service, domain.CreateInput{Hypothesis: "Cold email"})

	msg := commander.Handle(context.Background(), command("/gtm-list", ""))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeEphemeral, msg.ResponseType)
}

func TestListCommandMatchesAnyTextField(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)
	seedActivity(t, service, domain.CreateInput{Hypothesis: "Booth", Audience: ptr("Fintech startups")})

	msg := commander.Handle(context.Background(), command("/gtm-list", "fintech"))
	require.NotNil(t, msg)
	require.Contains(t, blocksJSON(t, msg), "Booth")
}

func TestListCommandShowsNewestFirst(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)
	for i := 1; i <= 12; i++ {
		seedActivity(t, service, domain.CreateInput{Hypothesis: fmt.Sprintf("Activity number %d", i)})
	}

	msg := commander.Handle(context.Background(), command("/gtm-list", ""))
	require.NotNil(t, msg)
	rendered := blocksJSON(t, msg)

	require.Contains(t, rendered, "GTM Activities (10)")
	require.Contains(t, rendered, "Activity number 12")
	require.Contains(t, rendered, "Activity number 3")
	require.NotContains(t, rendered, `view_2"`, "oldest records fall off the capped listing")
	require.NotContains(t, rendered, "Activity number 1\\n")
	require.Less(t, strings.Index(rendered, "Activity number 12"), strings.Index(rendered, "Activity number 3"))
}

func TestListCommandFilterKeepsNewestMatches(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)
	for i := 1; i <= 12; i++ {
		seedActivity(t, service, domain.CreateInput{
			Hypothesis: fmt.Sprintf("Email test %d", i),
			Channels:   ptr("Email"),
		})
	}

	msg := commander.Handle(context.Background(), command("/gtm-list", "email"))
	require.NotNil(t, msg)
	rendered := blocksJSON(t, msg)

	require.Contains(t, rendered, "Email test 12")
	require.Contains(t, rendered, "Email test 3")
	require.NotContains(t, rendered, `view_2"`)
	require.Less(t, strings.Index(rendered, "Email test 12"), strings.Index(rendered, "Email test 3"))
}

func TestListCommandEmptyResult(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)

	msg := commander.Handle(context.Background(), command("/gtm-list", "nomatch"))
	require.NotNil(t, msg)
	require.Contains(t, msg.Text, "No activities found matching 'nomatch'")
}

func TestUpdateCommandOpensModal(t *testing.T) {
	service, _ := newTestService(t)
	modals := &stubModalOpener{}
	commander := NewCommander(service, nil, modals)
	activity := seedActivity(t, service, domain.CreateInput{Hypothesis: "Cold email"})

	msg := commander.Handle(context.Background(), command("/gtm-update", "1"))
	require.Nil(t, msg, "modal open acknowledges with an empty response")
	require.Len(t, modals.opened, 1)
	require.Equal(t, "update_activity_1", modals.opened[0].CallbackID)
	require.Contains(t, modals.opened[0].Title.Text, "Update Activity #1")
	_ = activity
}

func TestUpdateCommandWithoutModalSupport(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)
	seedActivity(t, service, domain.CreateInput{Hypothesis: "Cold email"})

	msg := commander.Handle(context.Background(), command("/gtm-update", "1"))
	require.NotNil(t, msg)
	require.Equal(t, slack.ResponseTypeEphemeral, msg.ResponseType)
	require.Contains(t, msg.Text, "/gtm-view 1")
}

func TestExtractPublic(t *testing.T) {
	cases := []struct {
		in     string
		rest   string
		public bool
	}{
		{"", "", false},
		{"email", "email", false},
		{"public", "", true},
		{"public email", "email", true},
		{"email public", "email", true},
		{"PUBLIC email", "email", true},
		{"publicity stunt", "publicity stunt", false},
	}
	for _, tc := range cases {
		rest, public := extractPublic(tc.in)
		if rest != tc.rest || public != tc.public {
			t.Fatalf("extractPublic(%q) = (%q, %v), want (%q, %v)", tc.in, rest, public, tc.rest, tc.public)
		}
	}
}

func TestCommandHandlersNeverPanicOnWeirdInput(t *testing.T) {
	service, _ := newTestService(t)
	commander := NewCommander(service, nil, nil)

	inputs := []slack.SlashCommand{
		command("/gtm-view", strings.Repeat("9", 40)),
		command("/gtm-view", "-3"),
		command("/gtm-update", ""),
		command("/gtm-add", "|||"),
		command("/gtm-view", "public"),
	}
	for _, cmd := range inputs {
		msg := commander.Handle(context.Background(), cmd)
		require.NotNil(t, msg)
		require.Equal(t, slack.ResponseTypeEphemeral, msg.ResponseType)
	}
}
