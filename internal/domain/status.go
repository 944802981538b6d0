package domain

type CaptureState string

const (
	CaptureStateIdle      CaptureState = "IDLE"
	CaptureStateListening CaptureState = "LISTENING"
)

func (s CaptureState) String() string {
	return string(s)
}

// ListeningStatus is the snapshot served to polling front ends.
type ListeningStatus struct {
	IsListening       bool   `json:"is_listening"`
	ConversationCount int    `json:"conversation_count"`
	CurrentQuestion   string `json:"current_question"`
	LastResponse      string `json:"last_response"`
	SessionID         string `json:"session_id"`
	Profile           string `json:"profile"`
}

// StartResult reports the outcome of a start request. AlreadyRunning is a benign
// outcome, not an error.
type StartResult struct {
	Started        bool `json:"started"`
	AlreadyRunning bool `json:"already_running"`
}
