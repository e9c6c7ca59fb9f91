package memocache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// keySpec is what gets hashed into a cache key. Params carry dates as ISO
// strings and monetary values as exact decimal strings, so semantically
// identical calls always land on the same key regardless of object identity.
// json.Marshal sorts map keys, which keeps the encoding canonical.
type keySpec struct {
	Method string            `json:"method"`
	Params map[string]string `json:"params"`
}

func cacheKey(prefix string, userID uint64, method string, params map[string]string) string {
	raw, _ := json.Marshal(keySpec{Method: method, Params: params})
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s%x", userKeyPrefix(prefix, userID), sum)
}

// userKeyPrefix scopes keys per user so invalidation can bulk-delete them.
func userKeyPrefix(prefix string, userID uint64) string {
	return fmt.Sprintf("%s:%d:", prefix, userID)
}

func isoDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
