package enums

import "slices"

// ProjectStatus is the operational lifecycle of a project.
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusClosed    ProjectStatus = "closed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

var projectStatuses = newSet("project status",
	ProjectStatusDraft,
	ProjectStatusActive,
	ProjectStatusClosed,
	ProjectStatusCancelled,
)

// projectTransitions is the only place allowed status moves are declared.
// closed and cancelled are terminal.
var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusDraft:  {ProjectStatusActive, ProjectStatusCancelled},
	ProjectStatusActive: {ProjectStatusCancelled, ProjectStatusClosed},
}

func (s ProjectStatus) String() string { return string(s) }

func (s ProjectStatus) IsValid() bool { return projectStatuses.has(s) }

func (s ProjectStatus) IsTerminal() bool {
	return len(projectTransitions[s]) == 0
}

func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	return slices.Contains(projectTransitions[s], next)
}

func ParseProjectStatus(value string) (ProjectStatus, error) {
	return projectStatuses.parse(value)
}
