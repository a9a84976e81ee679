package enums

// NotificationType tags the payloads pushed to devices so the mobile client
// can route them.
type NotificationType string

const (
	NotificationTypePassRequest     NotificationType = "pass_request"
	NotificationTypePassApproved    NotificationType = "pass_approved"
	NotificationTypePassRejected    NotificationType = "pass_rejected"
	NotificationTypeLateEntry       NotificationType = "late_entry"
	NotificationTypeOverdueReturn   NotificationType = "overdue_return"
	NotificationTypeSOS             NotificationType = "sos"
	NotificationTypeGeofence        NotificationType = "geofence_violation"
	NotificationTypeLocationRequest NotificationType = "location_request"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}
