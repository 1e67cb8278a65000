// Package intelligence suggests a form kind from the labels of a form.
package intelligence

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-form-filler/internal/mapping"
)

const (
	keywordConfidence = 0.1
	patternConfidence = 0.15
)

type compiledRule struct {
	ClassificationRule
	patterns []*regexp.Regexp
}

// FormClassifier performs rule-based form kind classification
type FormClassifier struct {
	config ClassificationConfig
	rules  []compiledRule
}

// NewFormClassifier creates a classifier with the default configuration and rules
func NewFormClassifier() *FormClassifier {
	c, _ := NewFormClassifierWithConfig(DefaultClassificationConfig())
	return c
}

// NewFormClassifierWithConfig creates a classifier, adding custom rules from config.CustomRulesPath
func NewFormClassifierWithConfig(config ClassificationConfig) (*FormClassifier, error) {
	rules := getDefaultRules()

	if config.CustomRulesPath != "" {
		custom, err := LoadRules(config.CustomRulesPath)
		if err != nil {
			return nil, err
		}
		rules = append(rules, custom...)
	}

	fc := &FormClassifier{config: config}
	for _, rule := range rules {
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, err
		}
		fc.rules = append(fc.rules, compiled)
	}

	return fc, nil
}

func compileRule(rule ClassificationRule) (compiledRule, error) {
	c := compiledRule{ClassificationRule: rule}
	for _, p := range rule.KeywordPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return c, fmt.Errorf("rule %s: invalid pattern %q: %w", rule.Name, p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// LoadRules reads additional rules from a YAML file
func LoadRules(path string) ([]ClassificationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []ClassificationRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	return rules, nil
}

// Classify scores the labels against every enabled rule
func (fc *FormClassifier) Classify(ctx context.Context, labels []string) (Classification, error) {
	content := strings.ToLower(strings.Join(labels, "\n"))

	scores := make(map[mapping.FormKind]float64)
	reasons := make(map[mapping.FormKind][]ClassificationReason)
	var applied []string

	for _, rule := range fc.rules {
		if !rule.Enabled {
			continue
		}

		if err := ctx.Err(); err != nil {
			return Classification{}, err
		}

		confidence, ruleReasons := evaluateRule(rule, content)
		if confidence >= rule.MinConfidence {
			scores[rule.Kind] += confidence * rule.Weight
			reasons[rule.Kind] = append(reasons[rule.Kind], ruleReasons...)
			applied = append(applied, rule.Name)
		}
	}

	kind, confidence := fc.primary(scores)

	result := Classification{
		Kind:         kind,
		Confidence:   confidence,
		Alternatives: fc.alternatives(scores, kind),
		Reasons:      reasons[kind],
		RulesApplied: applied,
	}
	if len(result.Reasons) == 0 {
		result.Reasons = []ClassificationReason{{
			Rule:       "default",
			Category:   "fallback",
			Evidence:   "No strong classification signals found",
			Confidence: confidence,
		}}
	}

	slog.Debug("Form classified", "component", "classifier", "kind", kind, "confidence", confidence, "labels", len(labels))
	return result, nil
}

func evaluateRule(rule compiledRule, content string) (float64, []ClassificationReason) {
	var confidence float64
	var reasons []ClassificationReason

	for _, keyword := range rule.Keywords {
		count := strings.Count(content, strings.ToLower(keyword))
		if count > 0 {
			confidence += keywordConfidence * float64(count)
			reasons = append(reasons, ClassificationReason{
				Rule:       rule.Name,
				Category:   "keyword",
				Evidence:   fmt.Sprintf("Found keyword '%s' %d times", keyword, count),
				Confidence: keywordConfidence * float64(count),
			})
		}
	}

	for _, re := range rule.patterns {
		matches := re.FindAllString(content, -1)
		if len(matches) > 0 {
			confidence += patternConfidence * float64(len(matches))
			reasons = append(reasons, ClassificationReason{
				Rule:       rule.Name,
				Category:   "pattern",
				Evidence:   fmt.Sprintf("Pattern '%s' matched %d times", re.String(), len(matches)),
				Confidence: patternConfidence * float64(len(matches)),
			})
		}
	}

	return confidence, reasons
}

func (fc *FormClassifier) primary(scores map[mapping.FormKind]float64) (mapping.FormKind, float64) {
	var maxKind mapping.FormKind
	var maxScore float64

	kinds := make([]mapping.FormKind, 0, len(scores))
	for kind := range scores {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		if scores[kind] > maxScore {
			maxScore = scores[kind]
			maxKind = kind
		}
	}

	if maxScore > 1.0 {
		maxScore = 1.0
	}

	if maxScore == 0 || maxScore < fc.config.MinConfidenceThreshold {
		return mapping.KindGeneric, maxScore
	}

	return maxKind, maxScore
}

func (fc *FormClassifier) alternatives(scores map[mapping.FormKind]float64, primary mapping.FormKind) []ClassificationAlternative {
	var alts []ClassificationAlternative
	for kind, score := range scores {
		if kind != primary && score >= fc.config.MinConfidenceThreshold*0.5 {
			alts = append(alts, ClassificationAlternative{Kind: kind, Confidence: min(score, 1.0)})
		}
	}

	sort.Slice(alts, func(i, j int) bool {
		if alts[i].Confidence != alts[j].Confidence {
			return alts[i].Confidence > alts[j].Confidence
		}
		return alts[i].Kind < alts[j].Kind
	})

	if len(alts) > fc.config.MaxAlternatives {
		alts = alts[:fc.config.MaxAlternatives]
	}

	return alts
}

// GetConfig returns the current configuration
func (fc *FormClassifier) GetConfig() ClassificationConfig {
	return fc.config
}
