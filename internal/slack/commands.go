package slack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"example.com/gtm/internal/domain"
	"example.com/gtm/internal/observability"
)

// publicKeyword toggles broadcast visibility in list and view commands.
const publicKeyword = "public"

const helpText = `*GTM Tracker Commands*

• ` + "`/gtm-help`" + ` - Show this help message
• ` + "`/gtm-list [public] [filter]`" + ` - List recent activities (optional filter)
• ` + "`/gtm-view [public] [id]`" + ` - View details of a specific activity
• ` + "`/gtm-add hypothesis | audience | channels`" + ` - Add a new activity
• ` + "`/gtm-update [id]`" + ` - Update an existing activity

*Examples:*
` + "```" + `
/gtm-list
/gtm-list public linkedin
/gtm-view 1
/gtm-add Test cold email | Startups | Email
` + "```" + `

*Need help?* Contact your team admin.`

// ModalOpener opens a modal view in response to a trigger id. Satisfied by
// *slack.Client.
type ModalOpener interface {
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
}

// Commander routes slash commands to CRUD operations. Every handler is total:
// all failures come back as ephemeral messages, never as errors.
type Commander struct {
	service  *domain.Service
	notifier *Notifier
	modals   ModalOpener
}

// NewCommander constructs a Commander. notifier and modals may be nil when the
// bot token is not configured.
func NewCommander(service *domain.Service, notifier *Notifier, modals ModalOpener) *Commander {
	return &Commander{service: service, notifier: notifier, modals: modals}
}

// Handle dispatches one slash command. A nil message means an empty 200
// acknowledgement (used after opening a modal).
func (c *Commander) Handle(ctx context.Context, cmd slack.SlashCommand) *slack.Msg {
	observability.RecordCommand(cmd.Command)

	switch cmd.Command {
	case "/gtm-help":
		return &slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: helpText}
	case "/gtm-list":
		return c.list(ctx, cmd.Text)
	case "/gtm-view":
		return c.view(ctx, cmd.Text)
	case "/gtm-add":
		return c.add(ctx, cmd.Text)
	case "/gtm-update":
		return c.update(ctx, cmd.Text, cmd.TriggerID)
	default:
		return ephemeralText(fmt.Sprintf("❓ Unknown command `%s`. Try `/gtm-help`.", cmd.Command))
	}
}

func (c *Commander) list(ctx context.Context, text string) *slack.Msg {
	filter, public := extractPublic(text)

	var (
		activities []domain.Activity
		err        error
	)
	if filter == "" {
		activities, err = c.service.List(ctx, domain.ListFilter{Limit: maxListEntries, NewestFirst: true})
	} else {
		// A single chat filter term matches any of the three text fields,
		// unlike the AND-combined API filters.
		activities, err = c.anyFieldFilter(ctx, filter)
	}
	if err != nil {
		log.Printf("slack: list failed: %v", err)
		return ephemeralText("⚠️ Could not load activities. Please try again.")
	}

	return renderList(activities, filter, visibilityFor(public))
}

// anyFieldFilter matches the filter term against hypothesis, audience, or
// channels. Candidates arrive newest first, so the cap keeps the most recent
// matches.
func (c *Commander) anyFieldFilter(ctx context.Context, filter string) ([]domain.Activity, error) {
	all, err := c.service.List(ctx, domain.ListFilter{Limit: domain.DefaultListLimit * 10, NewestFirst: true})
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(filter)
	matched := make([]domain.Activity, 0)
	for _, activity := range all {
		if containsFold(activity.Hypothesis, needle) ||
			containsFoldPtr(activity.Audience, needle) ||
			containsFoldPtr(activity.Channels, needle) {
			matched = append(matched, activity)
			if len(matched) == maxListEntries {
				break
			}
		}
	}
	return matched, nil
}

func (c *Commander) view(ctx context.Context, text string) *slack.Msg {
	rest, public := extractPublic(text)

	id, msg := parseActivityID(rest, "/gtm-view")
	if msg != nil {
		return msg
	}

	activity, err := c.service.Get(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, id)
	}
	return renderDetail(activity, visibilityFor(public))
}

func (c *Commander) add(ctx context.Context, text string) *slack.Msg {
	if strings.TrimSpace(text) == "" {
		return ephemeralText("❌ Please provide activity details.\nFormat: `/gtm-add hypothesis | audience | channels`\nExample: `/gtm-add Test cold email | Startups | Email`")
	}

	parts := strings.Split(text, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	hypothesis := parts[0]
	if hypothesis == "" {
		return ephemeralText("❌ Invalid format. Use: `/gtm-add hypothesis | audience | channels`")
	}

	input := domain.CreateInput{Hypothesis: hypothesis}
	if len(parts) > 1 && parts[1] != "" {
		input.Audience = &parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		input.Channels = &parts[2]
	}

	activity, err := c.service.Create(ctx, input)
	if err != nil {
		log.Printf("slack: add failed: %v", err)
		return ephemeralText("⚠️ Could not create the activity. Please try again.")
	}

	if c.notifier != nil {
		c.notifier.NotifyCreated(ctx, activity)
	}

	return &slack.Msg{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         fmt.Sprintf("✅ Created activity #%d: %s", activity.ID, activity.Hypothesis),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(markdown(fmt.Sprintf(
				"✅ *Activity #%d Created*\n\n*Hypothesis:* %s\n*Audience:* %s\n*Channels:* %s",
				activity.ID, activity.Hypothesis, orNA(activity.Audience), orNA(activity.Channels))), nil, nil),
		}},
	}
}

func (c *Commander) update(ctx context.Context, text, triggerID string) *slack.Msg {
	id, msg := parseActivityID(text, "/gtm-update")
	if msg != nil {
		return msg
	}

	activity, err := c.service.Get(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, id)
	}

	if c.modals == nil || triggerID == "" {
		return ephemeralText(fmt.Sprintf("ℹ️ Updates need the Slack app connection. For now, use `/gtm-view %d` to view the activity.", id))
	}

	if _, err := c.modals.OpenViewContext(ctx, triggerID, updateModal(activity)); err != nil {
		log.Printf("slack: open update modal failed: %v", err)
		return ephemeralText("⚠️ Could not open the update form. Please try again.")
	}
	return nil
}

// extractPublic strips the broadcast keyword from the argument text and
// reports whether it was present.
func extractPublic(text string) (string, bool) {
	fields := strings.Fields(text)
	rest := make([]string, 0, len(fields))
	public := false
	for _, field := range fields {
		if strings.EqualFold(field, publicKeyword) {
			public = true
			continue
		}
		rest = append(rest, field)
	}
	return strings.Join(rest, " "), public
}

func parseActivityID(text, command string) (int64, *slack.Msg) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, ephemeralText(fmt.Sprintf("❌ Please provide an activity ID. Example: `%s 1`", command))
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id < 1 {
		return 0, ephemeralText(fmt.Sprintf("❌ Invalid activity ID: `%s`. Please use a number.", trimmed))
	}
	return id, nil
}

func notFoundOrInternal(err error, id int64) *slack.Msg {
	if errors.Is(err, domain.ErrActivityNotFound) {
		return ephemeralText(fmt.Sprintf("❌ Activity #%d not found.", id))
	}
	log.Printf("slack: lookup failed: %v", err)
	return ephemeralText("⚠️ Something went wrong. Please try again.")
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

func containsFoldPtr(haystack *string, lowerNeedle string) bool {
	return haystack != nil && containsFold(*haystack, lowerNeedle)
}
