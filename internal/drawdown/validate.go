package drawdown

import (
	"fmt"

	"portfoliorisk/internal/models"
)

// ValidateAscending rejects windows that break the snapshot contract:
// dates must be strictly ascending (which also rules out duplicates).
// Boundary layers call this once per load; the pure engine passes assume it.
func ValidateAscending(snaps []models.Snapshot) error {
	for i := 1; i < len(snaps); i++ {
		prev := snaps[i-1].SnapshotDate
		cur := snaps[i].SnapshotDate
		if !cur.After(prev) {
			return fmt.Errorf("snapshot order violation at index %d: %s is not after %s",
				i, cur.Format("2006-01-02"), prev.Format("2006-01-02"))
		}
	}
	return nil
}
