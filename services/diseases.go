package services

import (
	"sort"
	"strings"
)

// Canonical chronic-disease names are the Thai terms the care team uses in
// reports. Every recognized alias, Thai or English, folds into one of these.
const (
	DiseaseDiabetes     = "เบาหวาน"
	DiseaseHeart        = "หัวใจ"
	DiseaseHypertension = "ความดัน"
	DiseaseKidney       = "ไต"
	DiseaseCancer       = "มะเร็ง"
)

// riskDiseases are the conditions that raise the personal risk score.
var riskDiseases = map[string]bool{
	DiseaseDiabetes:     true,
	DiseaseHeart:        true,
	DiseaseHypertension: true,
	DiseaseKidney:       true,
	DiseaseCancer:       true,
}

// diseaseAliases maps free-text disease mentions to canonical names.
var diseaseAliases = map[string]string{
	"hypertension":        DiseaseHypertension,
	"high blood pressure": DiseaseHypertension,
	"blood pressure":      DiseaseHypertension,
	"ht":                  DiseaseHypertension,
	"ความดัน":             DiseaseHypertension,
	"diabetes":            DiseaseDiabetes,
	"type 1 diabetes":     DiseaseDiabetes,
	"type 2 diabetes":     DiseaseDiabetes,
	"t2d":                 DiseaseDiabetes,
	"dm":                  DiseaseDiabetes,
	"เบาหวาน":             DiseaseDiabetes,
	"cancer":              DiseaseCancer,
	"tumor":               DiseaseCancer,
	"มะเร็ง":              DiseaseCancer,
	"kidney":              DiseaseKidney,
	"renal":               DiseaseKidney,
	"ไต":                  DiseaseKidney,
	"heart":               DiseaseHeart,
	"cardiac":             DiseaseHeart,
	"หัวใจ":               DiseaseHeart,
}

// diseaseNegatives are inputs meaning "no disease". They normalize to an
// empty list rather than matching any alias.
var diseaseNegatives = map[string]bool{
	"none":       true,
	"no":         true,
	"no disease": true,
	"ไม่มี":      true,
	"ไม่มีโรค":   true,
	"healthy":    true,
	"null":       true,
	"n/a":        true,
	"ไม่":        true,
}

// aliasKeysByLength caches the alias keys sorted longest first, so "type 2
// diabetes" wins over the embedded "diabetes".
var aliasKeysByLength = sortedAliasKeys()

func sortedAliasKeys() []string {
	keys := make([]string, 0, len(diseaseAliases))
	for k := range diseaseAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// NormalizeDiseases folds a list of free-text disease mentions into a
// deduplicated list, preserving first-mention order. Recognized aliases fold
// to their canonical name; unrecognized mentions are kept verbatim so the
// care team still sees them; negations are dropped.
func NormalizeDiseases(raw []string) []string {
	seen := make(map[string]bool)
	normalized := make([]string, 0, len(raw))
	for _, item := range raw {
		name, ok := normalizeDisease(item)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		normalized = append(normalized, name)
	}
	return normalized
}

// normalizeDisease resolves one mention. The ok flag is false only for blank
// or negated input.
func normalizeDisease(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	s := strings.ToLower(trimmed)
	if s == "" {
		return "", false
	}
	if diseaseNegatives[s] {
		return "", false
	}
	// Phrases like "no diseases at all" negate without an exact match.
	if strings.Contains(s, "no disease") || strings.Contains(s, "ไม่มี") {
		return "", false
	}
	// Substring matching, longest alias first, so "type 2 diabetes" wins
	// over the embedded "diabetes".
	for _, key := range aliasKeysByLength {
		if strings.Contains(s, key) {
			return diseaseAliases[key], true
		}
	}
	return trimmed, true
}

// RiskDiseaseSubset filters a normalized list down to the conditions that
// carry scoring weight.
func RiskDiseaseSubset(diseases []string) []string {
	subset := make([]string, 0, len(diseases))
	for _, d := range diseases {
		if riskDiseases[d] {
			subset = append(subset, d)
		}
	}
	return subset
}
