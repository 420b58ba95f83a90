package domain

// MessageType identifies the kind of envelope on the conversation socket.
type MessageType string

const (
	MessageUserInput     MessageType = "user_input"
	MessageVoiceInput    MessageType = "voice_input"
	MessageAIResponse    MessageType = "ai_response"
	MessageTranscription MessageType = "transcription"
	MessageError         MessageType = "error"
	MessageSessionStart  MessageType = "session_start"
)

// Envelope is the wire format for every message exchanged over the
// conversation socket. Only type, content and session_id are always set;
// the remaining fields are populated on ai_response messages.
type Envelope struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	SessionID string      `json:"session_id"`

	// voice_input only: base64-encoded audio payload.
	AudioData string `json:"audio_data,omitempty"`

	// ai_response only.
	TurnCount       int     `json:"turn_count,omitempty"`
	PaymentReceived bool    `json:"payment_received,omitempty"`
	CurrentNode     string  `json:"current_node,omitempty"`
	ResponseTimeMS  float64 `json:"response_time_ms,omitempty"`
	TranscribedText string  `json:"transcribed_text,omitempty"`
	IsVoice         bool    `json:"is_voice,omitempty"`
	AudioURL        string  `json:"audio_url,omitempty"`
}
