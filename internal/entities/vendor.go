package entities

// Vendor is a tenant-level external supplier. Active project tasks
// referencing a vendor block its deletion.
type Vendor struct {
	Base `json:"-"`
	noRefs

	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	Phone        string `json:"phone,omitempty"`
}

func (*Vendor) Type() ResourceType { return TypeVendor }
