package entities

// Activity is an audit entry recorded against a task. The owner is the
// acting user.
type Activity struct {
	Base `json:"-"`

	TaskID string `json:"-"`
	Action string `json:"action"`
	Note   string `json:"note,omitempty"`
}

func (*Activity) Type() ResourceType { return TypeActivity }

func (a *Activity) Refs() map[string]string {
	return map[string]string{ColTaskID: a.TaskID}
}

func (a *Activity) SetRef(column, value string) {
	if column == ColTaskID {
		a.TaskID = value
	}
}
