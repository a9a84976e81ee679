package enums

import "fmt"

// PassType categorizes a pass request.
type PassType string

const (
	PassTypeOuting  PassType = "outing"
	PassTypeHome    PassType = "home"
	PassTypeMedical PassType = "medical"
	PassTypeOther   PassType = "other"
)

var validPassTypes = []PassType{
	PassTypeOuting,
	PassTypeHome,
	PassTypeMedical,
	PassTypeOther,
}

// IsValid reports whether the value is a known PassType.
func (p PassType) IsValid() bool {
	for _, candidate := range validPassTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePassType converts raw input into a PassType.
func ParsePassType(value string) (PassType, error) {
	for _, candidate := range validPassTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pass type %q", value)
}
