package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderNumber produces a globally unique order number of the form
// ORD-<unix millis>-<8 random hex chars>. The time component keeps numbers
// roughly sortable; the random suffix makes concurrent collisions
// negligible.
func GenerateOrderNumber() string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}
