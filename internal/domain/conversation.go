package domain

import "time"

type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerAssistant   Speaker = "assistant"
)

// ConversationEntry is one immutable line of the interview transcript.
type ConversationEntry struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CurrentResponse is the latest answered question.
type CurrentResponse struct {
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}
