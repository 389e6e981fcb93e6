// ABOUTME: Wire-shaped event payloads published through the registry
// ABOUTME: assistant_response lifecycle events and file_update notifications

package broadcast

// Event type discriminators on the wire
const (
	EventTypeAssistantResponse = "assistant_response"
	EventTypeFileUpdate        = "file_update"
)

// assistant_response actions
const (
	ActionStart   = "start"
	ActionMessage = "message"
	ActionEnd     = "end"
)

// file_update actions
const (
	ActionUpload = "upload"
	ActionDelete = "delete"
)

// MessagePayload is the data carried by an assistant_response message event:
// a human-readable projection of one content block as it is produced.
type MessagePayload struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// AssistantResponse is the event published for each step of an assistant
// turn. Data is null for start and end actions.
type AssistantResponse struct {
	Type   string          `json:"type"`
	Action string          `json:"action"`
	Data   *MessagePayload `json:"data"`
}

// AssistantMessage builds a message event carrying a block projection.
func AssistantMessage(payload *MessagePayload) AssistantResponse {
	return AssistantResponse{
		Type:   EventTypeAssistantResponse,
		Action: ActionMessage,
		Data:   payload,
	}
}

// AssistantStart builds the event signaling that a turn began resolving.
func AssistantStart() AssistantResponse {
	return AssistantResponse{Type: EventTypeAssistantResponse, Action: ActionStart}
}

// AssistantEnd builds the terminal event signaling that a turn is fully
// resolved.
func AssistantEnd() AssistantResponse {
	return AssistantResponse{Type: EventTypeAssistantResponse, Action: ActionEnd}
}

// FileUpdate is the event published when an upload is created or deleted.
type FileUpdate struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	FileID string `json:"file_id"`
}

// FileUploaded builds an upload notification for a file.
func FileUploaded(fileID string) FileUpdate {
	return FileUpdate{Type: EventTypeFileUpdate, Action: ActionUpload, FileID: fileID}
}

// FileDeleted builds a delete notification for a file.
func FileDeleted(fileID string) FileUpdate {
	return FileUpdate{Type: EventTypeFileUpdate, Action: ActionDelete, FileID: fileID}
}
