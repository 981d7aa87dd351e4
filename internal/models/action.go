package models

import "fmt"

// Action is a user-initiated request.
type Action string

// Actions.
const (
	ActionStartDaemon  Action = "start-daemon"
	ActionStopDaemon   Action = "stop-daemon"
	ActionStartDesktop Action = "start-desktop"
	ActionStopDesktop  Action = "stop-desktop"
	ActionReload       Action = "reload"
	ActionCheckUpdate  Action = "check-update"
	ActionLoadModel    Action = "load-model"
)

// Group is a resource group; at most one action per group is in flight.
type Group string

// Resource groups.
const (
	GroupRuntime Group = "runtime"
	GroupUpdate  Group = "update"
	GroupProbe   Group = "probe"
)

// Actions lists every known action in menu order.
var Actions = []Action{
	ActionStartDaemon,
	ActionStopDaemon,
	ActionStartDesktop,
	ActionStopDesktop,
	ActionLoadModel,
	ActionReload,
	ActionCheckUpdate,
}

// Group returns the resource group the action contends for.
func (a Action) Group() Group {
	switch a {
	case ActionCheckUpdate:
		return GroupUpdate
	case ActionReload:
		return GroupProbe
	default:
		return GroupRuntime
	}
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, k := range Actions {
		if k == a {
			return true
		}
	}
	return false
}

// ParseAction converts a name such as "start-daemon" into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}
