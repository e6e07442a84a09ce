package models

// WebSocket message types
const (
	WSTypeConversationUpdate = "conversation_update"
	WSTypeError              = "error"
)

// Client message types
const (
	ClientTypeSubmit = "submit"
	ClientTypeDraft  = "draft"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientMessage is the message format from the widget to the server
type ClientMessage struct {
	Type string `json:"type"` // "submit" | "draft"
	Text string `json:"text"`
}

type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// API Error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
