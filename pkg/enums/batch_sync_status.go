package enums

import "fmt"

// BatchSyncStatus tracks a sync batch through bridge delivery.
// DELIVERING marks a claimed in-flight attempt; SKIPPED marks batches
// processed while no bridge endpoint was configured.
type BatchSyncStatus string

const (
	BatchSyncPending    BatchSyncStatus = "PENDING"
	BatchSyncDelivering BatchSyncStatus = "DELIVERING"
	BatchSyncSynced     BatchSyncStatus = "SYNCED"
	BatchSyncFailed     BatchSyncStatus = "FAILED"
	BatchSyncSkipped    BatchSyncStatus = "SKIPPED"
)

var validBatchSyncStatuses = []BatchSyncStatus{
	BatchSyncPending,
	BatchSyncDelivering,
	BatchSyncSynced,
	BatchSyncFailed,
	BatchSyncSkipped,
}

// String implements fmt.Stringer.
func (b BatchSyncStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BatchSyncStatus.
func (b BatchSyncStatus) IsValid() bool {
	for _, candidate := range validBatchSyncStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBatchSyncStatus converts raw input into a BatchSyncStatus.
func ParseBatchSyncStatus(value string) (BatchSyncStatus, error) {
	for _, candidate := range validBatchSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid batch sync status %q", value)
}
