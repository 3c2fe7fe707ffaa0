package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newID returns "<prefix>-<unix millis>-<8 hex chars>". The millisecond part
// keeps the shape of IDs written by the browser app; the random suffix keeps
// IDs created within the same millisecond apart.
func newID(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}
