package security

import "strings"

// Permissions decodes the P entry of a PDF encryption dictionary
type Permissions struct {
	Print            bool
	Modify           bool
	Copy             bool
	Annotate         bool
	FillForms        bool
	Extract          bool
	Assemble         bool
	PrintHighQuality bool
}

// NewPermissions decodes the user access permission bits (bits 3-6 and 9-12)
func NewPermissions(perms int32) Permissions {
	return Permissions{
		Print:            perms&0x04 != 0,
		Modify:           perms&0x08 != 0,
		Copy:             perms&0x10 != 0,
		Annotate:         perms&0x20 != 0,
		FillForms:        perms&0x200 != 0,
		Extract:          perms&0x400 != 0,
		Assemble:         perms&0x800 != 0,
		PrintHighQuality: perms&0x1000 != 0,
	}
}

// CanFill reports whether form fields may be filled; bit 6 also grants it
func (p Permissions) CanFill() bool {
	return p.FillForms || p.Annotate
}

// Allowed returns the names of the granted operations
func (p Permissions) Allowed() []string {
	flags := []struct {
		name string
		set  bool
	}{
		{"print", p.Print},
		{"modify", p.Modify},
		{"copy", p.Copy},
		{"annotate", p.Annotate},
		{"fill_forms", p.FillForms},
		{"extract", p.Extract},
		{"assemble", p.Assemble},
		{"print_high_quality", p.PrintHighQuality},
	}

	allowed := []string{}
	for _, f := range flags {
		if f.set {
			allowed = append(allowed, f.name)
		}
	}

	return allowed
}

func (p Permissions) String() string {
	allowed := p.Allowed()
	if len(allowed) == 0 {
		return "No permissions granted"
	}
	return "Allowed: " + strings.Join(allowed, ", ")
}
