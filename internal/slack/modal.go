package slack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"example.com/gtm/internal/domain"
)

// updateCallbackPrefix correlates a modal submission with its activity; the id
// is the token segment after the final underscore.
const updateCallbackPrefix = "update_activity_"

// updateModal builds the edit form pre-filled with the activity's current
// values.
func updateModal(activity *domain.Activity) slack.ModalViewRequest {
	blocks := []slack.Block{
		textInput("hypothesis", "Hypothesis", activity.Hypothesis, false, false),
		textInput("audience", "Audience", strValue(activity.Audience), false, true),
		textInput("channels", "Channels", strValue(activity.Channels), false, true),
		textInput("description", "Description", strValue(activity.Description), true, true),
		textInput("list_size", "List Size", intValue(activity.ListSize), false, true),
		textInput("meetings_booked", "Meetings Booked", intValue(activity.MeetingsBooked), false, true),
		textInput("est_weekly_hrs", "Est. Weekly Hours", floatValue(activity.EstWeeklyHrs), false, true),
	}

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: fmt.Sprintf("%s%d", updateCallbackPrefix, activity.ID),
		Title:      plainText(fmt.Sprintf("Update Activity #%d", activity.ID)),
		Submit:     plainText("Save"),
		Close:      plainText("Cancel"),
		Blocks:     slack.Blocks{BlockSet: blocks},
	}
}

func textInput(blockID, label, initial string, multiline, optional bool) *slack.InputBlock {
	element := slack.NewPlainTextInputBlockElement(nil, blockID+"_input")
	element.InitialValue = initial
	element.Multiline = multiline

	block := slack.NewInputBlock(blockID, plainText(label), nil, element)
	block.Optional = optional
	return block
}

// parseCallbackID extracts the activity id from an update callback token.
func parseCallbackID(callbackID string) (int64, bool) {
	idx := strings.LastIndex(callbackID, "_")
	if idx < 0 || idx == len(callbackID)-1 {
		return 0, false
	}
	id, err := strconv.ParseInt(callbackID[idx+1:], 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// parseSubmission converts modal form state into a partial update. Blank
// inputs are omitted rather than zeroed; numeric fields parse leniently, so an
// unparsable value is likewise omitted.
func parseSubmission(state *slack.ViewState) domain.UpdateInput {
	var input domain.UpdateInput
	if state == nil {
		return input
	}

	if value, ok := submittedValue(state, "hypothesis"); ok {
		input.Hypothesis = &value
	}
	if value, ok := submittedValue(state, "audience"); ok {
		input.Audience = &value
	}
	if value, ok := submittedValue(state, "channels"); ok {
		input.Channels = &value
	}
	if value, ok := submittedValue(state, "description"); ok {
		input.Description = &value
	}
	if value, ok := submittedValue(state, "list_size"); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			input.ListSize = &parsed
		}
	}
	if value, ok := submittedValue(state, "meetings_booked"); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			input.MeetingsBooked = &parsed
		}
	}
	if value, ok := submittedValue(state, "est_weekly_hrs"); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			input.EstWeeklyHrs = &parsed
		}
	}
	return input
}

func submittedValue(state *slack.ViewState, blockID string) (string, bool) {
	block, ok := state.Values[blockID]
	if !ok {
		return "", false
	}
	action, ok := block[blockID+"_input"]
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(action.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

func strValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func intValue(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func floatValue(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
