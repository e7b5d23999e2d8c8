package types

import "testing"

func TestStatusSeverity(t *testing.T) {
	tests := []struct {
		status string
		want   Severity
	}{
		{StatusCurrent, SeverityOK},
		{StatusInProgress, SeverityPending},
		{StatusTerminating, SeverityPending},
		{StatusFailed, SeverityError},
		{StatusNotFound, SeverityError},
		{StatusUnknown, SeverityUnknown},
		{"", SeverityUnknown},
	}
	for _, tt := range tests {
		if got := StatusSeverity(tt.status); got != tt.want {
			t.Errorf("StatusSeverity(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}
