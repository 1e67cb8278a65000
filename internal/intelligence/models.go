package intelligence

import (
	"github.com/a3tai/mcp-form-filler/internal/mapping"
)

// ClassificationRule scores one form kind from keyword and pattern evidence
type ClassificationRule struct {
	Name            string           `json:"name" yaml:"name"`
	Kind            mapping.FormKind `json:"kind" yaml:"kind"`
	Keywords        []string         `json:"keywords" yaml:"keywords"`
	KeywordPatterns []string         `json:"keyword_patterns,omitempty" yaml:"keyword_patterns,omitempty"`
	Weight          float64          `json:"weight" yaml:"weight"`
	MinConfidence   float64          `json:"min_confidence" yaml:"min_confidence"`
	Enabled         bool             `json:"enabled" yaml:"enabled"`
}

// ClassificationReason explains one piece of evidence
type ClassificationReason struct {
	Rule       string  `json:"rule"`
	Category   string  `json:"category"`
	Evidence   string  `json:"evidence"`
	Confidence float64 `json:"confidence"`
}

// ClassificationAlternative is a runner-up kind
type ClassificationAlternative struct {
	Kind       mapping.FormKind `json:"kind"`
	Confidence float64          `json:"confidence"`
}

// Classification is the detected kind of a form. Kind is Generic when no rule was convincing.
type Classification struct {
	Kind         mapping.FormKind            `json:"kind"`
	Confidence   float64                     `json:"confidence"`
	Alternatives []ClassificationAlternative `json:"alternatives,omitempty"`
	Reasons      []ClassificationReason      `json:"reasons"`
	RulesApplied []string                    `json:"rules_applied"`
}

// ClassificationConfig tunes the classifier
type ClassificationConfig struct {
	MinConfidenceThreshold float64 `json:"min_confidence_threshold" yaml:"min_confidence_threshold"`
	MaxAlternatives        int     `json:"max_alternatives" yaml:"max_alternatives"`
	CustomRulesPath        string  `json:"custom_rules_path,omitempty" yaml:"custom_rules_path,omitempty"`
}

// DefaultClassificationConfig returns the default classifier configuration
func DefaultClassificationConfig() ClassificationConfig {
	return ClassificationConfig{
		MinConfidenceThreshold: 0.3,
		MaxAlternatives:        2,
	}
}
