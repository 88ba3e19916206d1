package entities

// ColHeadActorID is indexed so delete guards can find the departments an
// actor heads.
const ColHeadActorID = "head_actor_id"

// Department is a subdivision of a tenant. A tenant must always retain at
// least one active department, and a department at least one head.
type Department struct {
	Base `json:"-"`

	Name        string `json:"name"`
	Description string `json:"description"`
	HeadActorID string `json:"-"`
}

func (*Department) Type() ResourceType { return TypeDepartment }

func (d *Department) Refs() map[string]string {
	return map[string]string{ColHeadActorID: d.HeadActorID}
}

func (d *Department) SetRef(column, value string) {
	if column == ColHeadActorID {
		d.HeadActorID = value
	}
}
