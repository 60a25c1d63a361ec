package trainer

import (
	"time"

	"github.com/lowaak/compprep/compprep-app/internal/badges"
)

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeTimer    UIMode = iota // Rest countdown and session controls
	UIModeSettings               // Workout shape, editable while idle
	UIModeBadges                 // Collected and locked badges
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeTimer, DisplayName: "Rest Timer", KeyBinding: '1'},
	{Mode: UIModeSettings, DisplayName: "Settings", KeyBinding: '2'},
	{Mode: UIModeBadges, DisplayName: "Badges", KeyBinding: '3'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// SettingField identifies one editable row on the settings screen
type SettingField int

const (
	SettingSets SettingField = iota
	SettingMinRest
	SettingMaxRest
)

// AllSettingFields lists the settings rows in display order
var AllSettingFields = []SettingField{SettingSets, SettingMinRest, SettingMaxRest}

func (f SettingField) String() string {
	switch f {
	case SettingSets:
		return "Sets"
	case SettingMinRest:
		return "Min Rest"
	case SettingMaxRest:
		return "Max Rest"
	default:
		return "Unknown"
	}
}

// Bounds enforced by the settings screen
const (
	MinSets        = 1
	MaxSets        = 20
	MinRestMinutes = 0
	MaxRestMinutes = 15
)

const (
	// DefaultLeadInSeconds is the "get ready" countdown before the first set
	DefaultLeadInSeconds = 5

	// ProFeatureRestTimer is reported when the timer is used without access
	ProFeatureRestTimer = "rest_timer"

	defaultCountdownStep = time.Second
)

// CountdownState describes the lead-in countdown shown before a session starts
type CountdownState struct {
	Active    bool
	Remaining int
}

// BadgeBoardState is what the badges screen renders
type BadgeBoardState struct {
	Collected []badges.Badge
	Locked    []badges.Badge
}
