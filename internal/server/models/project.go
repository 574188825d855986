package models

import (
	"fmt"
	"time"
)

// ProjectStatus is the lifecycle state of a project's IDE instance.
type ProjectStatus string

const (
	StatusProvisioning ProjectStatus = "provisioning"
	StatusActive       ProjectStatus = "active"
	StatusTerminated   ProjectStatus = "terminated"
)

// ParseProjectStatus validates a status string.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch st := ProjectStatus(s); st {
	case StatusProvisioning, StatusActive, StatusTerminated:
		return st, nil
	default:
		return "", fmt.Errorf("unknown project status %q", s)
	}
}

// CanTransitionTo reports whether a project in status s may move to next.
// terminated is absorbing; staying in the same status is always allowed.
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusProvisioning:
		return next == StatusActive || next == StatusTerminated
	case StatusActive:
		return next == StatusTerminated
	default:
		return false
	}
}

// Project is a user's described project and, once provisioned, its IDE
// instance. URL and InstanceID are nil until provisioning succeeds.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	UserID      string        `json:"userId"`
	URL         *string       `json:"url"`
	InstanceID  *string       `json:"instanceId"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ProjectPatch carries the fields of a partial update. Nil fields are left
// unchanged.
type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	URL         *string        `json:"url,omitempty"`
	InstanceID  *string        `json:"instanceId,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.URL == nil && p.InstanceID == nil && p.Status == nil
}

// ProbeTarget is an active project selected for a reachability probe.
type ProbeTarget struct {
	ID         string
	URL        string
	InstanceID *string
}
