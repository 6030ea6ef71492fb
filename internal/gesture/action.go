package gesture

// Action is the closed set of playback operations a gesture can trigger.
// Labels outside this set (the server also knows screen-brightness
// actions, which have no terminal equivalent) are ignored by the bridge.
type Action int

const (
	ActionNone Action = iota
	ActionPlay
	ActionPause
	ActionVolumeUp
	ActionVolumeDown
	ActionNext
	ActionPrevious
)

var actionLabels = map[string]Action{
	"play":        ActionPlay,
	"pause":       ActionPause,
	"volume_up":   ActionVolumeUp,
	"volume_down": ActionVolumeDown,
	"next":        ActionNext,
	"previous":    ActionPrevious,
}

// ParseAction maps a server action label onto the closed enum. The second
// return is false for unknown labels.
func ParseAction(label string) (Action, bool) {
	action, ok := actionLabels[label]
	return action, ok
}

func (a Action) String() string {
	for label, action := range actionLabels {
		if action == a {
			return label
		}
	}
	return "none"
}
