package runner

import (
	"fmt"
	"strings"
)

// Action is the lifecycle verb a Runner performs.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

// Actions lists valid actions in usage order.
func Actions() []Action {
	return []Action{ActionStart, ActionStop, ActionRestart}
}

func (a Action) String() string {
	return string(a)
}

// ParseAction maps a token to an Action. Unknown tokens yield a
// KindInvalidAction error.
func ParseAction(token string) (Action, error) {
	normalized := Action(strings.ToLower(strings.TrimSpace(token)))
	for _, action := range Actions() {
		if normalized == action {
			return action, nil
		}
	}
	names := make([]string, 0, len(Actions()))
	for _, action := range Actions() {
		names = append(names, string(action))
	}
	return "", &Error{
		Kind:   KindInvalidAction,
		Reason: fmt.Sprintf("unknown action %q (valid: %s)", token, strings.Join(names, ", ")),
	}
}
