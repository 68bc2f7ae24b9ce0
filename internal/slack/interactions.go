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

// Action tags encoded in control identifiers, followed by the activity id.
const (
	actionView   = "view_"
	actionEdit   = "edit_"
	actionDelete = "delete_"
	actionShare  = "share_"
)

// Interactor processes asynchronous UI callbacks. Every event is
// self-contained: the activity id embedded in the action id or callback id is
// the only correlation state.
type Interactor struct {
	service *domain.Service
	modals  ModalOpener
}

// NewInteractor constructs an Interactor. modals may be nil when the bot
// token is not configured.
func NewInteractor(service *domain.Service, modals ModalOpener) *Interactor {
	return &Interactor{service: service, modals: modals}
}

// HandleAction routes a block_actions event. A nil message means an empty 200
// acknowledgement.
func (i *Interactor) HandleAction(ctx context.Context, callback slack.InteractionCallback) *slack.Msg {
	observability.RecordInteraction(string(slack.InteractionTypeBlockActions))

	if len(callback.ActionCallback.BlockActions) == 0 {
		return ephemeralText("⚠️ Nothing to do for this action.")
	}
	action := callback.ActionCallback.BlockActions[0]

	tag, id, ok := splitActionID(action.ActionID)
	if !ok {
		return ephemeralText(fmt.Sprintf("⚠️ Unrecognized action `%s`.", action.ActionID))
	}

	switch tag {
	case actionView:
		return i.detail(ctx, id, slack.ResponseTypeEphemeral)
	case actionShare:
		return i.detail(ctx, id, slack.ResponseTypeInChannel)
	case actionDelete:
		return i.delete(ctx, id)
	case actionEdit:
		return i.openUpdateModal(ctx, id, callback.TriggerID)
	default:
		return ephemeralText(fmt.Sprintf("⚠️ Unrecognized action `%s`.", action.ActionID))
	}
}

// HandleSubmission routes a view_submission event. The returned response
// either closes the modal or reports a field-level error.
func (i *Interactor) HandleSubmission(ctx context.Context, callback slack.InteractionCallback) *slack.ViewSubmissionResponse {
	observability.RecordInteraction(string(slack.InteractionTypeViewSubmission))

	id, ok := parseCallbackID(callback.View.CallbackID)
	if !ok || !strings.HasPrefix(callback.View.CallbackID, updateCallbackPrefix) {
		return slack.NewErrorsViewSubmissionResponse(map[string]string{
			"hypothesis": "This form is no longer valid.",
		})
	}

	input := parseSubmission(callback.View.State)

	if _, err := i.service.Update(ctx, id, input, true); err != nil {
		switch {
		case errors.Is(err, domain.ErrActivityNotFound):
			return slack.NewErrorsViewSubmissionResponse(map[string]string{
				"hypothesis": fmt.Sprintf("Activity #%d no longer exists.", id),
			})
		case errors.Is(err, domain.ErrValidation):
			return slack.NewErrorsViewSubmissionResponse(map[string]string{
				"hypothesis": "Hypothesis must not be empty.",
			})
		default:
			log.Printf("slack: modal update failed: %v", err)
			return slack.NewErrorsViewSubmissionResponse(map[string]string{
				"hypothesis": "Something went wrong. Please try again.",
			})
		}
	}

	return slack.NewClearViewSubmissionResponse()
}

func (i *Interactor) detail(ctx context.Context, id int64, responseType string) *slack.Msg {
	activity, err := i.service.Get(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, id)
	}
	return renderDetail(activity, responseType)
}

func (i *Interactor) delete(ctx context.Context, id int64) *slack.Msg {
	if err := i.service.Delete(ctx, id); err != nil {
		return notFoundOrInternal(err, id)
	}
	return ephemeralText(fmt.Sprintf("🗑️ Activity #%d deleted.", id))
}

func (i *Interactor) openUpdateModal(ctx context.Context, id int64, triggerID string) *slack.Msg {
	activity, err := i.service.Get(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, id)
	}
	if i.modals == nil || triggerID == "" {
		return ephemeralText(fmt.Sprintf("ℹ️ Updates need the Slack app connection. Use `/gtm-view %d` instead.", id))
	}
	if _, err := i.modals.OpenViewContext(ctx, triggerID, updateModal(activity)); err != nil {
		log.Printf("slack: open update modal failed: %v", err)
		return ephemeralText("⚠️ Could not open the update form. Please try again.")
	}
	return nil
}

// splitActionID decomposes an action identifier into its operation tag and
// activity id.
func splitActionID(actionID string) (string, int64, bool) {
	for _, tag := range []string{actionView, actionEdit, actionDelete, actionShare} {
		if !strings.HasPrefix(actionID, tag) {
			continue
		}
		id, err := strconv.ParseInt(actionID[len(tag):], 10, 64)
		if err != nil || id < 1 {
			return "", 0, false
		}
		return tag, id, true
	}
	return "", 0, false
}
