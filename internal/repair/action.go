// Package repair sequences the destructive Satellite repair workflows:
// confirm, check disk space, stop services, repair, start services.
package repair

// Action is one of the four repair workflows. Exactly one runs per
// invocation.
type Action int

const (
	ActionNone Action = iota
	ContentSyncCleanup
	TaskHistoryTruncate
	BrokerReset
	DatabaseRepair
)

var actionNames = map[Action]string{
	ActionNone:          "none",
	ContentSyncCleanup:  "pulp-tasks",
	TaskHistoryTruncate: "tasks",
	BrokerReset:         "hornetq",
	DatabaseRepair:      "mongo",
}

var actionTitles = map[Action]string{
	ContentSyncCleanup:  "Pulp task cleanup",
	TaskHistoryTruncate: "Foreman Task and Dynflow table truncate",
	BrokerReset:         "HornetQ/QPID journal reset",
	DatabaseRepair:      "MongoDB repair",
}

// String returns the flag-style name used in logs.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Title is the operator-facing name.
func (a Action) Title() string {
	return actionTitles[a]
}

// Valid reports whether a names a runnable workflow.
func (a Action) Valid() bool {
	_, ok := actionTitles[a]
	return ok
}

// Actions lists every runnable workflow in flag order.
func Actions() []Action {
	return []Action{ContentSyncCleanup, TaskHistoryTruncate, BrokerReset, DatabaseRepair}
}
