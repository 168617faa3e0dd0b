package utils

import (
	"regexp"
	"strings"
)

// frequencyCodes maps spelled-out dosing frequencies to standard Latin codes.
var frequencyCodes = map[string]string{
	"once daily":        "OD",
	"once a day":        "OD",
	"twice daily":       "BID",
	"twice a day":       "BID",
	"three times daily": "TID",
	"three times a day": "TID",
	"four times daily":  "QID",
	"four times a day":  "QID",
	"as needed":         "PRN",
	"at bedtime":        "HS",
	"every morning":     "QAM",
}

var dosagePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|iu|units?)\s*$`)

// NormalizedMedication contains the standardized form of an extracted medication.
type NormalizedMedication struct {
	DrugName  string
	Dosage    string
	Frequency string
	Route     string
	Duration  string
}

// NormalizeDrugName converts a drug name to title case with collapsed whitespace.
func NormalizeDrugName(name string) string {
	trimmed := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	if trimmed == "" {
		return ""
	}
	words := strings.Split(trimmed, " ")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatDosage collapses a value/unit pair into the compact form used on
// medication records, e.g. "500 MG" -> "500mg".
func FormatDosage(dosage string) string {
	matches := dosagePattern.FindStringSubmatch(dosage)
	if matches == nil {
		return strings.TrimSpace(dosage)
	}
	return matches[1] + strings.ToLower(matches[2])
}

// StandardizeFrequency converts a spelled-out frequency to its standard code.
// Unrecognized frequencies are returned unchanged.
func StandardizeFrequency(frequency string) string {
	key := strings.Join(strings.Fields(strings.ToLower(frequency)), " ")
	if code, ok := frequencyCodes[key]; ok {
		return code
	}
	return frequency
}

// NormalizeRoute lowercases the administration route.
func NormalizeRoute(route string) string {
	return strings.ToLower(strings.TrimSpace(route))
}

// NormalizeMedication standardizes all fields of an extracted medication.
func NormalizeMedication(drugName, dosage, frequency, route, duration string) NormalizedMedication {
	return NormalizedMedication{
		DrugName:  NormalizeDrugName(drugName),
		Dosage:    FormatDosage(dosage),
		Frequency: StandardizeFrequency(frequency),
		Route:     NormalizeRoute(route),
		Duration:  strings.TrimSpace(duration),
	}
}
