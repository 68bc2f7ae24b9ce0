package slack

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"

	"example.com/gtm/internal/domain"
)

func sampleActivity() *domain.Activity {
	start, _ := domain.ParseDate("2025-12-01")
	return &domain.Activity{
		ID:         7,
		Hypothesis: "Cold email converts fintech leads",
		Audience:   ptr("Fintech startups"),
		Channels:   ptr("Email"),
		StartDate:  &start,
		CreatedAt:  time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderDetailFields(t *testing.T) {
	msg := renderDetail(sampleActivity(), slack.ResponseTypeEphemeral)
	rendered := blocksJSON(t, msg)

	require.Contains(t, rendered, "Activity #7")
	require.Contains(t, rendered, "Cold email converts fintech leads")
	require.Contains(t, rendered, "Fintech startups")
	require.Contains(t, rendered, "2025-12-01")
	require.Contains(t, rendered, "Created: 2025-11-20")
	require.Contains(t, rendered, "edit_7")
	require.Contains(t, rendered, "share_7")
	require.Contains(t, rendered, "delete_7")
}

func TestRenderDetailPlaceholders(t *testing.T) {
	activity := sampleActivity()
	activity.Audience = nil
	activity.Channels = ptr("")
	activity.StartDate = nil

	msg := renderDetail(activity, slack.ResponseTypeEphemeral)
	rendered := blocksJSON(t, msg)

	require.Contains(t, rendered, notAvailable)
	require.NotContains(t, rendered, "Start Date", "date section is dropped when both dates are null")
}

func TestRenderDetailTruncatesDescription(t *testing.T) {
	activity := sampleActivity()
	long := strings.Repeat("x", 600)
	activity.Description = &long

	msg := renderDetail(activity, slack.ResponseTypeEphemeral)
	rendered := blocksJSON(t, msg)

	require.Contains(t, rendered, strings.Repeat("x", 497)+"...")
	require.NotContains(t, rendered, strings.Repeat("x", 498))
}

func TestRenderDetailKeepsShortDescription(t *testing.T) {
	activity := sampleActivity()
	short := strings.Repeat("y", 500)
	activity.Description = &short

	rendered := blocksJSON(t, renderDetail(activity, slack.ResponseTypeEphemeral))
	require.Contains(t, rendered, short)
	require.NotContains(t, rendered, "...")
}

func TestRenderDetailKeepsMultibyteDescription(t *testing.T) {
	activity := sampleActivity()
	accented := strings.Repeat("é", 300)
	activity.Description = &accented

	rendered := blocksJSON(t, renderDetail(activity, slack.ResponseTypeEphemeral))
	require.Contains(t, rendered, accented)
	require.NotContains(t, rendered, "...")
}

func TestRenderListCapsEntries(t *testing.T) {
	activities := make([]domain.Activity, 0, 12)
	for i := int64(1); i <= 12; i++ {
		activities = append(activities, domain.Activity{ID: i, Hypothesis: "Activity"})
	}

	msg := renderList(activities, "", slack.ResponseTypeEphemeral)
	rendered := blocksJSON(t, msg)

	require.Contains(t, rendered, "GTM Activities (10)")
	require.Contains(t, rendered, "view_10")
	require.NotContains(t, rendered, "view_11")
}

func TestRenderListEmpty(t *testing.T) {
	msg := renderList(nil, "", slack.ResponseTypeEphemeral)
	require.Equal(t, "📭 No activities found.", msg.Text)

	msg = renderList(nil, "email", slack.ResponseTypeInChannel)
	require.Equal(t, "📭 No activities found matching 'email'.", msg.Text)
	require.Equal(t, slack.ResponseTypeInChannel, msg.ResponseType)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 10))
	require.Equal(t, strings.Repeat("a", 500), truncate(strings.Repeat("a", 500), 500))
	require.Equal(t, strings.Repeat("a", 497)+"...", truncate(strings.Repeat("a", 501), 500))
}

func TestTruncateCountsRunes(t *testing.T) {
	// 300 characters but 600 bytes: within the character budget, untouched.
	short := strings.Repeat("é", 300)
	require.Equal(t, short, truncate(short, 500))

	long := strings.Repeat("é", 600)
	got := truncate(long, 500)
	require.Equal(t, strings.Repeat("é", 497)+"...", got)
	require.True(t, utf8.ValidString(got))
}
