package mapping

import "strings"

// FormKind is a predefined form category used to steer the mapping prompt.
type FormKind string

const (
	KindGeneric         FormKind = "Generic"
	KindKYC             FormKind = "KYC Form"
	KindTax             FormKind = "Tax Form (e.g., W-9, 1040)"
	KindVisaApplication FormKind = "Visa Application"
	KindInvoice         FormKind = "Invoice"
)

// FormKinds lists the predefined kinds in display order.
var FormKinds = []FormKind{KindGeneric, KindKYC, KindTax, KindVisaApplication, KindInvoice}

// Hint builds the prompt hint. A custom description takes precedence over kind.
func Hint(kind FormKind, custom string) string {
	if custom = strings.TrimSpace(custom); custom != "" {
		return "The form is related to: " + custom + "."
	}

	if kind == "" || kind == KindGeneric {
		return ""
	}

	return "This is a " + string(kind) + "."
}
