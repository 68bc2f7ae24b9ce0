package slack

import (
	"encoding/json"
	"net/http"

	"github.com/slack-go/slack"
)

// Handler exposes the command and interaction webhooks. Both endpoints sit
// behind signature verification; everything past that boundary answers with a
// well-formed payload, never a raw fault.
type Handler struct {
	commander  *Commander
	interactor *Interactor
	verifier   *Verifier
}

// NewHandler builds a Handler.
func NewHandler(commander *Commander, interactor *Interactor, verifier *Verifier) *Handler {
	return &Handler{commander: commander, interactor: interactor, verifier: verifier}
}

// RegisterRoutes wires the webhook endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/slack/commands", h.verifier.Wrap(http.HandlerFunc(h.commands)))
	mux.Handle("/slack/interactions", h.verifier.Wrap(http.HandlerFunc(h.interactions)))
}

func (h *Handler) commands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
		return
	}

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		http.Error(w, "unable to parse command", http.StatusBadRequest)
		return
	}

	writeMessage(w, h.commander.Handle(r.Context(), cmd))
}

func (h *Handler) interactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &callback); err != nil {
		http.Error(w, "unable to parse interaction payload", http.StatusBadRequest)
		return
	}

	switch callback.Type {
	case slack.InteractionTypeBlockActions:
		writeMessage(w, h.interactor.HandleAction(r.Context(), callback))
	case slack.InteractionTypeViewSubmission:
		writePayload(w, h.interactor.HandleSubmission(r.Context(), callback))
	default:
		// Unknown event kinds are acknowledged so Slack stops retrying.
		w.WriteHeader(http.StatusOK)
	}
}

// writeMessage renders a message payload, or an empty acknowledgement when
// the handler produced none.
func writeMessage(w http.ResponseWriter, msg *slack.Msg) {
	if msg == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	writePayload(w, msg)
}

func writePayload(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
