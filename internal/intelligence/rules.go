package intelligence

import "github.com/a3tai/mcp-form-filler/internal/mapping"

// getDefaultRules returns the built-in form kind rules
func getDefaultRules() []ClassificationRule {
	return []ClassificationRule{
		{
			Name: "kyc_keywords",
			Kind: mapping.KindKYC,
			Keywords: []string{
				"know your customer", "kyc", "identity", "identification", "passport number",
				"nationality", "date of birth", "place of birth", "proof of address",
				"source of funds", "politically exposed", "beneficial owner", "occupation",
			},
			KeywordPatterns: []string{
				`\bid\s*(number|no\.?)\b`,
				`\bpep\b`,
			},
			Weight:        1.0,
			MinConfidence: 0.2,
			Enabled:       true,
		},
		{
			Name: "tax_keywords",
			Kind: mapping.KindTax,
			Keywords: []string{
				"taxpayer", "tax identification", "social security number", "employer identification",
				"withholding", "filing status", "adjusted gross income", "deduction", "exemption",
				"tax year", "backup withholding",
			},
			KeywordPatterns: []string{
				`\birs\b`,
				`\bw-?9\b`,
				`\b1040\b`,
				`\b(ssn|tin|ein)\b`,
			},
			Weight:        1.0,
			MinConfidence: 0.2,
			Enabled:       true,
		},
		{
			Name: "visa_keywords",
			Kind: mapping.KindVisaApplication,
			Keywords: []string{
				"visa", "passport", "date of issue", "date of expiry", "issuing authority",
				"intended date of arrival", "duration of stay", "purpose of travel",
				"port of entry", "travel document", "schengen", "consulate",
			},
			KeywordPatterns: []string{
				`\bentr(y|ies)\b`,
			},
			Weight:        1.0,
			MinConfidence: 0.2,
			Enabled:       true,
		},
		{
			Name: "invoice_keywords",
			Kind: mapping.KindInvoice,
			Keywords: []string{
				"invoice", "bill to", "ship to", "due date", "amount due", "subtotal",
				"quantity", "unit price", "payment terms", "purchase order", "total",
			},
			KeywordPatterns: []string{
				`\bvat\b`,
				`invoice\s*(#|no\.?|number)`,
				`\bpo\s*(#|no\.?|number)`,
			},
			Weight:        0.9,
			MinConfidence: 0.2,
			Enabled:       true,
		},
	}
}

// GetAllDefaultRules returns a copy of the built-in rules
func GetAllDefaultRules() []ClassificationRule {
	return getDefaultRules()
}
