package entities

// ColRole is indexed so delete guards can count remaining administrators.
const ColRole = "role"

// User is an actor within a tenant. Meta.DepartmentID is the department the
// user belongs to; platform actors are the users of the platform tenant.
type User struct {
	Base `json:"-"`

	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"-"`
}

func (*User) Type() ResourceType { return TypeUser }

func (u *User) Refs() map[string]string {
	return map[string]string{ColRole: string(u.Role)}
}

func (u *User) SetRef(column, value string) {
	if column == ColRole {
		u.Role = Role(value)
	}
}
