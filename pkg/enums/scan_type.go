package enums

// ScanType identifies which half of the exit/entry cycle a scan recorded.
type ScanType string

const (
	ScanTypeExit  ScanType = "exit"
	ScanTypeEntry ScanType = "entry"
)

// String implements fmt.Stringer.
func (s ScanType) String() string {
	return string(s)
}
