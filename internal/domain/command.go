package domain

type CommandType string

const (
	CommandStart   CommandType = "start"
	CommandStop    CommandType = "stop"
	CommandStatus  CommandType = "status"
	CommandAsk     CommandType = "ask"
	CommandUnknown CommandType = "unknown"
)

func (c CommandType) String() string {
	return string(c)
}

// CommandResult is the reply to a control command.
type CommandResult struct {
	OK      bool             `json:"ok"`
	Message string           `json:"message"`
	Status  *ListeningStatus `json:"status,omitempty"`
	Data    map[string]any   `json:"data,omitempty"`
}
