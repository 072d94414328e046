package requests

// ChatAttachment references inbound media, either as a URL or a data URI.
type ChatAttachment struct {
	MimeType   string `json:"mime_type"`
	StorageRef string `json:"storage_ref" binding:"required"`
}

// ChatRequest is the normalized inbound message from the bot transport.
// The transport is trusted to have applied authorization already.
type ChatRequest struct {
	ExternalUserID int64            `json:"external_user_id" binding:"required"`
	Username       *string          `json:"username,omitempty"`
	FirstName      *string          `json:"first_name,omitempty"`
	LastName       *string          `json:"last_name,omitempty"`
	Text           string           `json:"text"`
	Attachments    []ChatAttachment `json:"attachments,omitempty"`
	Command        string           `json:"command,omitempty"`
}

// HasContent reports whether the message carries anything to send. A message
// may be text only, attachments only, or both.
func (r *ChatRequest) HasContent() bool {
	return r.Text != "" || len(r.Attachments) > 0
}

// IsNewConversation reports whether the request asked for a fresh context.
func (r *ChatRequest) IsNewConversation() bool {
	return r.Command == "new"
}
