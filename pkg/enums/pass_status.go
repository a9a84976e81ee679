package enums

import "fmt"

// PassStatus tracks the lifecycle of a gate pass.
type PassStatus string

const (
	PassStatusPending        PassStatus = "pending"
	PassStatusActive         PassStatus = "active"
	PassStatusApprovedParent PassStatus = "approved_parent"
	PassStatusApprovedWarden PassStatus = "approved_warden"
	PassStatusApproved       PassStatus = "approved"
	PassStatusRejected       PassStatus = "rejected"
	PassStatusExited         PassStatus = "exited"
	PassStatusEntered        PassStatus = "entered"
)

var validPassStatuses = []PassStatus{
	PassStatusPending,
	PassStatusActive,
	PassStatusApprovedParent,
	PassStatusApprovedWarden,
	PassStatusApproved,
	PassStatusRejected,
	PassStatusExited,
	PassStatusEntered,
}

// passTransitions is the closed transition table. Any pair not listed here
// is rejected; rejected and entered are terminal.
var passTransitions = map[PassStatus][]PassStatus{
	PassStatusPending:        {PassStatusApprovedParent, PassStatusApprovedWarden, PassStatusRejected},
	PassStatusApprovedParent: {PassStatusApprovedWarden, PassStatusRejected},
	PassStatusActive:         {PassStatusExited},
	PassStatusApproved:       {PassStatusExited},
	PassStatusApprovedWarden: {PassStatusExited},
	PassStatusExited:         {PassStatusEntered},
}

// scannablePassStatuses are the states a gate terminal will act on. Parent
// approval alone does not authorize passage, so approved_parent is excluded.
var scannablePassStatuses = []PassStatus{
	PassStatusActive,
	PassStatusApproved,
	PassStatusApprovedWarden,
	PassStatusExited,
}

// String implements fmt.Stringer.
func (p PassStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PassStatus.
func (p PassStatus) IsValid() bool {
	for _, candidate := range validPassStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the transition table permits moving from
// the receiver to the target status.
func (p PassStatus) CanTransitionTo(target PassStatus) bool {
	for _, candidate := range passTransitions[p] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsScannable reports whether a gate scan may act on the status.
func (p PassStatus) IsScannable() bool {
	for _, candidate := range scannablePassStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist for the status.
func (p PassStatus) IsTerminal() bool {
	return len(passTransitions[p]) == 0
}

// InitialPassStatus returns the status assigned at creation: students wait
// for approval, every other role is self-approved.
func InitialPassStatus(requester Role) PassStatus {
	if requester == RoleStudent {
		return PassStatusPending
	}
	return PassStatusActive
}

// ParsePassStatus converts raw input into a PassStatus.
func ParsePassStatus(value string) (PassStatus, error) {
	for _, candidate := range validPassStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pass status %q", value)
}
