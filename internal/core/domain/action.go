package domain

import "fmt"

// Action is the closed set of things a command can ask for.
type Action int

const (
	ActionNone Action = iota
	ActionHelp
	ActionWeather
	ActionGeo
	ActionChat
	ActionReason
	ActionTimer
	ActionPinnedNone
)

var actionNames = map[Action]string{
	ActionNone:       "none",
	ActionHelp:       "help",
	ActionWeather:    "weather",
	ActionGeo:        "geo",
	ActionChat:       "chat",
	ActionReason:     "reason",
	ActionTimer:      "timer",
	ActionPinnedNone: "pinned-none",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Actions lists every action a dispatcher must be able to route.
func Actions() []Action {
	return []Action{
		ActionNone,
		ActionHelp,
		ActionWeather,
		ActionGeo,
		ActionChat,
		ActionReason,
		ActionTimer,
		ActionPinnedNone,
	}
}

// ParseAction maps an action token onto an Action. Matching is exact and
// case-sensitive. Unknown tokens yield ActionNone together with
// ErrUnknownAction so callers can still route them to the no-op handler.
func ParseAction(token string) (Action, error) {
	switch token {
	case "", "help":
		return ActionHelp, nil
	case "weather", "temperature", "temp":
		return ActionWeather, nil
	case "geo":
		return ActionGeo, nil
	case "chat":
		return ActionChat, nil
	case "reason":
		return ActionReason, nil
	case "timer":
		return ActionTimer, nil
	default:
		return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, token)
	}
}
