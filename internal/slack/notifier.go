package slack

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"example.com/gtm/internal/domain"
	"example.com/gtm/internal/observability"
)

// ChatPoster posts messages to a channel. Satisfied by *slack.Client.
type ChatPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier pushes a creation summary to the broadcast channel. Delivery is
// best-effort: failures are logged and counted, never propagated, and never
// roll back the record mutation that triggered them.
type Notifier struct {
	client  ChatPoster
	channel string
}

// NewNotifier constructs a Notifier. The channel name gains a leading # when
// missing.
func NewNotifier(client ChatPoster, channel string) *Notifier {
	if !strings.HasPrefix(channel, "#") {
		channel = "#" + channel
	}
	return &Notifier{client: client, channel: channel}
}

// NotifyCreated announces a freshly created activity.
func (n *Notifier) NotifyCreated(ctx context.Context, activity *domain.Activity) {
	if n == nil || n.client == nil {
		return
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(markdown("🚀 *New GTM Activity!*"), nil, nil),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(markdown(summaryText(activity)), nil, nil),
		slack.NewActionBlock("",
			slack.NewButtonBlockElement(
				fmt.Sprintf("view_%d", activity.ID),
				strconv.FormatInt(activity.ID, 10),
				plainText("View Details"),
			),
		),
	}

	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(fmt.Sprintf("New GTM Activity: %s", activity.Hypothesis), false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		log.Printf("slack: notification failed: %v", err)
		observability.RecordNotification("failure")
		return
	}
	observability.RecordNotification("success")
}

func summaryText(activity *domain.Activity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*#%d: %s*\n", activity.ID, activity.Hypothesis)
	if activity.Audience != nil {
		fmt.Fprintf(&b, "👥 Audience: %s\n", *activity.Audience)
	}
	if activity.Channels != nil {
		fmt.Fprintf(&b, "📢 Channels: %s\n", *activity.Channels)
	}
	if activity.Description != nil {
		fmt.Fprintf(&b, "📝 Description: %s\n", *activity.Description)
	}
	if activity.ListSize != nil {
		fmt.Fprintf(&b, "📊 List Size: %d\n", *activity.ListSize)
	}
	if activity.MeetingsBooked != nil {
		fmt.Fprintf(&b, "📅 Meetings Booked: %d\n", *activity.MeetingsBooked)
	}
	if activity.StartDate != nil {
		fmt.Fprintf(&b, "📆 Start: %s\n", activity.StartDate)
	}
	if activity.EndDate != nil {
		fmt.Fprintf(&b, "📆 End: %s\n", activity.EndDate)
	}
	if activity.EstWeeklyHrs != nil {
		fmt.Fprintf(&b, "⏰ Est Weekly Hours: %s\n", strconv.FormatFloat(*activity.EstWeeklyHrs, 'f', -1, 64))
	}
	return b.String()
}
