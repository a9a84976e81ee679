package enums

import "fmt"

// SOSAlertType records how an SOS alert was raised.
type SOSAlertType string

const (
	SOSAlertTypeManual   SOSAlertType = "manual"
	SOSAlertTypeGeofence SOSAlertType = "geofence"
)

var validSOSAlertTypes = []SOSAlertType{
	SOSAlertTypeManual,
	SOSAlertTypeGeofence,
}

// IsValid reports whether the value is a known SOSAlertType.
func (s SOSAlertType) IsValid() bool {
	for _, candidate := range validSOSAlertTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSOSAlertType converts raw input into an SOSAlertType.
func ParseSOSAlertType(value string) (SOSAlertType, error) {
	for _, candidate := range validSOSAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sos alert type %q", value)
}

// SOSStatus tracks whether an alert is still open.
type SOSStatus string

const (
	SOSStatusActive   SOSStatus = "active"
	SOSStatusResolved SOSStatus = "resolved"
)

// IsValid reports whether the value is a known SOSStatus.
func (s SOSStatus) IsValid() bool {
	return s == SOSStatusActive || s == SOSStatusResolved
}
