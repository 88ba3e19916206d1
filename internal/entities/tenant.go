package entities

// Tenant is the top-level isolation boundary. Exactly one tenant has
// IsPlatform set; it is created once at bootstrap and can never be deleted.
type Tenant struct {
	Base `json:"-"`

	Name       string `json:"name"`
	Slug       string `json:"slug"`
	IsPlatform bool   `json:"is_platform"`
}

func (*Tenant) Type() ResourceType { return TypeTenant }

// ColIsPlatform is indexed so bootstrap and restore guards can locate the
// platform tenant without scanning.
const ColIsPlatform = "is_platform"

func (t *Tenant) Refs() map[string]string {
	v := "false"
	if t.IsPlatform {
		v = "true"
	}

	return map[string]string{ColIsPlatform: v}
}

func (t *Tenant) SetRef(column, value string) {
	if column == ColIsPlatform {
		t.IsPlatform = value == "true"
	}
}
