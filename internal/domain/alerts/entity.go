package alerts

import (
	"time"

	"github.com/neura/fraudshield/internal/domain/scans"
)

// Alert is raised by the passive interception path when a message is judged
// fraudulent. Not persisted here; delivery belongs to the configured sinks.
type Alert struct {
	Kind                  scans.Kind   `json:"scan_kind"`
	Result                scans.Result `json:"result"`
	OriginatingIdentifier string       `json:"originating_identifier,omitempty"`
	ReceivedAt            time.Time    `json:"received_at"`
}
