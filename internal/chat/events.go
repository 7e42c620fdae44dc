package chat

// Wire event types, one JSON object per line on the stream.
const (
	EventChunk = "chunk"
	EventDone  = "done"
	EventError = "error"
)

// Event is the streaming protocol unit. Every turn produces zero or more
// chunk events followed by exactly one terminal event (done or error).
type Event struct {
	Type       string `json:"type"`
	Content    string `json:"content,omitempty"`
	MessageId  string `json:"messageId,omitempty"`
	Error      string `json:"error,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}
