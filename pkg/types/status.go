package types

const (
	// Object status values computed by the server for reconciled objects.

	// StatusCurrent indicates the object matches its desired state.
	StatusCurrent = "Current"

	// StatusInProgress indicates the object is still being rolled out.
	StatusInProgress = "InProgress"

	// StatusFailed indicates the object failed to reach its desired state.
	StatusFailed = "Failed"

	// StatusTerminating indicates the object is being deleted.
	StatusTerminating = "Terminating"

	// StatusNotFound indicates the object no longer exists in the cluster.
	StatusNotFound = "NotFound"

	// StatusUnknown is used when the server reports no status.
	StatusUnknown = "Unknown"
)

// Severity buckets an object status for display.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityOK
	SeverityPending
	SeverityError
)

// StatusSeverity maps an object status to its display severity.
func StatusSeverity(status string) Severity {
	switch status {
	case StatusCurrent:
		return SeverityOK
	case StatusInProgress, StatusTerminating:
		return SeverityPending
	case StatusFailed, StatusNotFound:
		return SeverityError
	default:
		return SeverityUnknown
	}
}
