package slack

import (
	"fmt"
	"strconv"

	"github.com/slack-go/slack"

	"example.com/gtm/internal/domain"
)

const (
	// descriptionBudget bounds the long-text section of a detail view.
	descriptionBudget = 500
	// maxListEntries caps list rendering.
	maxListEntries = 10

	notAvailable = "N/A"
)

// ephemeralText is the fallback shape for every user-facing failure.
func ephemeralText(text string) *slack.Msg {
	return &slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: text}
}

func visibilityFor(public bool) string {
	if public {
		return slack.ResponseTypeInChannel
	}
	return slack.ResponseTypeEphemeral
}

// renderDetail builds the full detail view of one activity.
func renderDetail(activity *domain.Activity, responseType string) *slack.Msg {
	blocks := []slack.Block{
		slack.NewHeaderBlock(plainText(fmt.Sprintf("Activity #%d", activity.ID))),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			markdown("*Hypothesis*\n" + activity.Hypothesis),
			markdown("*Audience*\n" + orNA(activity.Audience)),
		}, nil),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			markdown("*Channels*\n" + orNA(activity.Channels)),
			markdown("*List Size*\n" + intOrNA(activity.ListSize)),
		}, nil),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			markdown("*Meetings Booked*\n" + intOrNA(activity.MeetingsBooked)),
			markdown("*Est. Weekly Hours*\n" + floatOrNA(activity.EstWeeklyHrs)),
		}, nil),
	}

	if activity.StartDate != nil || activity.EndDate != nil {
		blocks = append(blocks, slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			markdown("*Start Date*\n" + dateOrNA(activity.StartDate)),
			markdown("*End Date*\n" + dateOrNA(activity.EndDate)),
		}, nil))
	}

	if activity.Description != nil && *activity.Description != "" {
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(markdown("*Description*\n"+truncate(*activity.Description, descriptionBudget)), nil, nil),
		)
	}

	blocks = append(blocks,
		slack.NewDividerBlock(),
		detailActions(activity.ID),
		slack.NewContextBlock("",
			markdown("Created: "+activity.CreatedAt.Format("2006-01-02")),
		),
	)

	return &slack.Msg{ResponseType: responseType, Blocks: slack.Blocks{BlockSet: blocks}}
}

// detailActions emits the edit/share/delete controls for one activity. The
// delete button carries a client-side confirmation dialog; the server-side
// delete itself is unconditional.
func detailActions(id int64) *slack.ActionBlock {
	edit := slack.NewButtonBlockElement(fmt.Sprintf("edit_%d", id), strconv.FormatInt(id, 10), plainText("Edit"))
	share := slack.NewButtonBlockElement(fmt.Sprintf("share_%d", id), strconv.FormatInt(id, 10), plainText("Share"))
	del := slack.NewButtonBlockElement(fmt.Sprintf("delete_%d", id), strconv.FormatInt(id, 10), plainText("Delete"))
	del.Style = slack.StyleDanger
	del.Confirm = slack.NewConfirmationBlockObject(
		plainText("Delete activity?"),
		plainText(fmt.Sprintf("Activity #%d will be removed permanently.", id)),
		plainText("Delete"),
		plainText("Cancel"),
	)
	return slack.NewActionBlock("activity_actions", edit, share, del)
}

// renderList builds the capped listing with per-item detail buttons.
func renderList(activities []domain.Activity, filter, responseType string) *slack.Msg {
	if len(activities) == 0 {
		text := "📭 No activities found."
		if filter != "" {
			text = fmt.Sprintf("📭 No activities found matching '%s'.", filter)
		}
		return &slack.Msg{ResponseType: responseType, Text: text}
	}

	if len(activities) > maxListEntries {
		activities = activities[:maxListEntries]
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(plainText(fmt.Sprintf("📊 GTM Activities (%d)", len(activities)))),
	}
	if filter != "" {
		blocks = append(blocks, slack.NewContextBlock("", markdown("Filtered by: *"+filter+"*")))
	}

	for i := range activities {
		activity := &activities[i]
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(
				markdown(fmt.Sprintf("*#%d* - %s\n👥 %s • 📢 %s",
					activity.ID, activity.Hypothesis, orNA(activity.Audience), orNA(activity.Channels))),
				nil,
				slack.NewAccessory(slack.NewButtonBlockElement(
					fmt.Sprintf("view_%d", activity.ID),
					strconv.FormatInt(activity.ID, 10),
					plainText("View Details"),
				)),
			),
		)
	}

	return &slack.Msg{ResponseType: responseType, Blocks: slack.Blocks{BlockSet: blocks}}
}

// truncate hard-caps text at budget runes of output, marking the cut with an
// ellipsis.
func truncate(text string, budget int) string {
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget-3]) + "..."
}

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func orNA(value *string) string {
	if value == nil || *value == "" {
		return notAvailable
	}
	return *value
}

func intOrNA(value *int) string {
	if value == nil {
		return notAvailable
	}
	return strconv.Itoa(*value)
}

func floatOrNA(value *float64) string {
	if value == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func dateOrNA(value *domain.Date) string {
	if value == nil {
		return notAvailable
	}
	return value.String()
}
