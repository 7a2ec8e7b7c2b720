package model

import "strings"

// Normalized gender values.
const (
	GenderMale    = "Male"
	GenderFemale  = "Female"
	GenderUnknown = "Unknown"
)

// NormalizeGender maps a raw gender spelling onto Male, Female or Unknown.
// Neutral voices are reported as Unknown.
func NormalizeGender(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	default:
		return GenderUnknown
	}
}
