// Package slack implements the chat-integration surface: request signing,
// slash commands, interaction callbacks, rendering, and notifications.
package slack

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	signatureHeader = "X-Slack-Signature"
	timestampHeader = "X-Slack-Request-Timestamp"

	// Requests older or newer than this window are replays by definition.
	freshnessWindow = 5 * time.Minute
)

// Verifier enforces Slack request signing on incoming webhooks. An empty
// secret disables verification; that mode exists for local development only.
type Verifier struct {
	secret string
	now    func() time.Time
}

// NewVerifier constructs a Verifier.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret, now: time.Now}
}

// Wrap attaches signature verification to an http.Handler. The body is read
// for signing and restored for the next handler.
func (v *Verifier) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		timestamp := r.Header.Get(timestampHeader)
		signature := r.Header.Get(signatureHeader)
		if timestamp == "" || signature == "" {
			http.Error(w, "missing signature headers", http.StatusBadRequest)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "unable to read body", http.StatusBadRequest)
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		if !v.verify(timestamp, body, signature) {
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// verify checks freshness and the v0 HMAC-SHA256 signature.
func (v *Verifier) verify(timestamp string, body []byte, signature string) bool {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > freshnessWindow || age < -freshnessWindow {
		return false
	}

	base := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(base))
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
