package domain

import "time"

// CommandContext identifies where a control command came from.
type CommandContext struct {
	Source    string
	Params    map[string]any
	Timestamp time.Time
}

func NewCommandContext(source string, params map[string]any) *CommandContext {
	if params == nil {
		params = map[string]any{}
	}
	return &CommandContext{
		Source:    source,
		Params:    params,
		Timestamp: time.Now(),
	}
}

// BoolParam reads a boolean parameter with a default.
func (c *CommandContext) BoolParam(key string, def bool) bool {
	if c == nil {
		return def
	}
	if v, ok := c.Params[key].(bool); ok {
		return v
	}
	return def
}

// StringParam reads a string parameter, "" when absent.
func (c *CommandContext) StringParam(key string) string {
	if c == nil {
		return ""
	}
	v, _ := c.Params[key].(string)
	return v
}
