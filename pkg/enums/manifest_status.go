package enums

import "fmt"

// ManifestStatus tracks whether a manifest still accepts scans.
type ManifestStatus string

const (
	ManifestOpen   ManifestStatus = "OPEN"
	ManifestClosed ManifestStatus = "CLOSED"
)

var validManifestStatuses = []ManifestStatus{
	ManifestOpen,
	ManifestClosed,
}

// String implements fmt.Stringer.
func (m ManifestStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known ManifestStatus.
func (m ManifestStatus) IsValid() bool {
	for _, candidate := range validManifestStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseManifestStatus converts raw input into a ManifestStatus.
func ParseManifestStatus(value string) (ManifestStatus, error) {
	for _, candidate := range validManifestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid manifest status %q", value)
}
