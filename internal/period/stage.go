package period

import "strings"

// Stage identifies one of the fixed notification checkpoints in a comment
// period's lifecycle.
type Stage string

const (
	StageNew        Stage = "new"
	StageReminder7d Stage = "reminder_7d"
	StageReminder3d Stage = "reminder_3d"
	StageLastDay    Stage = "last_day"
)

var allStages = []Stage{
	StageNew,
	StageReminder7d,
	StageReminder3d,
	StageLastDay,
}

// deliveryOrder lists stages most-urgent first so a degraded run that can
// only deliver a few posts favors imminent deadlines.
var deliveryOrder = []Stage{
	StageLastDay,
	StageReminder3d,
	StageReminder7d,
	StageNew,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// AllStages returns the stages in lifecycle order.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// DeliveryOrder returns the stages in the order the scheduler evaluates them.
func DeliveryOrder() []Stage {
	cp := make([]Stage, len(deliveryOrder))
	copy(cp, deliveryOrder)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// ReminderOffsetDays returns the number of days before the comment deadline
// at which a reminder stage fires, and whether the stage is day-bound at all.
// StageNew is keyed off first sighting rather than a calendar offset.
func (s Stage) ReminderOffsetDays() (int, bool) {
	switch s {
	case StageReminder7d:
		return 7, true
	case StageReminder3d:
		return 3, true
	case StageLastDay:
		return 0, true
	default:
		return 0, false
	}
}
