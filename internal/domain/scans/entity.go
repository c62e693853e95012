package scans

// ID tipe untuk HistoryItem (assigned by the store)
type HistoryID string

// Kind enum
type Kind string

const (
	KindSMS   Kind = "SMS"
	KindCall  Kind = "CALL"
	KindEmail Kind = "EMAIL"
	KindURL   Kind = "URL"
)

// RiskLevel enum. Classifier-supplied; the pipeline never derives it from
// confidence.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Reserved details key/value marking a locally substituted verdict.
const (
	DetailSourceKey   = "source"
	DetailSourceLocal = "local_fallback"
)

// Result is the verdict for a single scanned item.
type Result struct {
	IsFraud    bool           `json:"is_fraud"`
	Confidence float64        `json:"confidence"`
	RiskLevel  RiskLevel      `json:"risk_level"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
}

// Degraded reports whether this result came from the local fallback path
// instead of the classifier.
func (r Result) Degraded() bool {
	if r.Details == nil {
		return false
	}
	v, ok := r.Details[DetailSourceKey]
	return ok && v == DetailSourceLocal
}

// DegradedResult is the deterministic placeholder returned when the
// classifier cannot be reached. Non-fraud-biased.
func DegradedResult() Result {
	return Result{
		IsFraud:    false,
		Confidence: 0,
		RiskLevel:  RiskLow,
		Message:    "Classification service unavailable, verdict is not authoritative",
		Details:    map[string]any{DetailSourceKey: DetailSourceLocal},
	}
}

// Aggregate Root: HistoryItem
type HistoryItem struct {
	ID            HistoryID `json:"id"`
	Kind          Kind      `json:"scan_kind"`
	IsFraud       bool      `json:"is_fraud"`
	Confidence    float64   `json:"confidence"`
	RiskLevel     RiskLevel `json:"risk_level"`
	Message       string    `json:"message"`
	SourceMessage string    `json:"source_message,omitempty"`
	Timestamp     int64     `json:"timestamp"` // epoch millis
}

// Summary value object, counts over a recent window
type Summary struct {
	Total  int `json:"total_scans"`
	Fraud  int `json:"fraud"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}
