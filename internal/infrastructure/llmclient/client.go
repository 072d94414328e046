// Package llmclient implements the vendor HTTP clients behind the
// provider.Client contract. Each client maps vendor failures into the
// normalized error taxonomy; raw vendor bodies are logged, never returned.
package llmclient

import (
	"fmt"
	"net/http"
	"strings"

	"resty.dev/v3"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/infrastructure/logger"
)

// maxRequestBytes caps the serialized message payload sent to a provider.
const maxRequestBytes = 4 * 1024 * 1024

func kindFromStatus(status int) provider.ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return provider.ErrorKindRateLimited
	case status >= 500:
		return provider.ErrorKindUnavailable
	default:
		return provider.ErrorKindRejected
	}
}

// responseError logs the raw vendor body and returns a normalized failure
// that carries only the status code.
func responseError(providerName string, resp *resty.Response) error {
	status := resp.StatusCode()
	body := strings.TrimSpace(resp.String())
	log := logger.GetLogger()
	log.Error().
		Str("provider", providerName).
		Int("status", status).
		Str("body", body).
		Msg("provider request failed")
	return provider.NewError(kindFromStatus(status), providerName, fmt.Errorf("status %d", status))
}

func transportError(providerName string, err error) error {
	return provider.NewError(provider.ErrorKindUnavailable, providerName, err)
}

func messageBytes(msg *conversation.Message) int {
	size := len(msg.Content)
	for _, att := range msg.Attachments {
		size += len(att.StorageRef)
	}
	return size
}

// fitPayload drops the oldest messages until the serialized size is under
// the request cap. The newest message is never dropped.
func fitPayload(messages []conversation.Message) []conversation.Message {
	total := 0
	for i := range messages {
		total += messageBytes(&messages[i])
	}
	for total > maxRequestBytes && len(messages) > 1 {
		total -= messageBytes(&messages[0])
		messages = messages[1:]
	}
	return messages
}

// parseDataURI splits a data URI into its mime type and base64 payload.
// Returns ok=false for plain URLs and malformed refs.
func parseDataURI(ref string) (mimeType, data string, ok bool) {
	if !strings.HasPrefix(ref, "data:") {
		return "", "", false
	}
	rest := strings.TrimPrefix(ref, "data:")
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return "", "", false
	}
	return rest[:sep], rest[sep+len(";base64,"):], true
}

func normalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}
