package entities

import "time"

// Notification is an in-app message addressed to one user; the owner is the
// recipient. Delivery over external transports is a collaborator concern.
type Notification struct {
	Base `json:"-"`
	noRefs

	Kind    string     `json:"kind"`
	Message string     `json:"message"`
	ReadAt  *time.Time `json:"read_at,omitempty"`
}

func (*Notification) Type() ResourceType { return TypeNotification }
