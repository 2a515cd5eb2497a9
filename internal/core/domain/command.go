package domain

type CommandAction string

const (
	ActionCreate CommandAction = "create"
	ActionUpdate CommandAction = "update"
)

// Command is a suggested az CLI invocation that would move one live resource
// toward its declared configuration. Commands are advisory; nothing runs them
// without explicit approval.
type Command struct {
	Text        string        `json:"command"`
	Description string        `json:"description"`
	Action      CommandAction `json:"action"`
	Entity      EntityID      `json:"entity"`
	Risk        RiskLevel     `json:"risk"`
}
