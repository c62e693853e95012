package prompt

import (
	"fmt"

	domain "github.com/neura/fraudshield/internal/domain/scans"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a fraud and phishing analyst. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- risk_level must be one of: LOW, MEDIUM, HIGH.
- confidence must be a number between 0.0 and 1.0.
- message is a short human-readable summary of the verdict.
- details may carry extra indicators (urls found, urgency cues, spoofed sender) and may be omitted.

Schema (example with empty values):
{
  "is_fraud": false,
  "confidence": 0.0,
  "risk_level": "LOW",
  "message": "<string>",
  "details": {}
}`
}

// GetUserPrompt shapes the scanned content for the analyst by kind.
func GetUserPrompt(req domain.Request) string {
	switch req.Kind {
	case domain.KindSMS:
		if req.PhoneNumber != "" {
			return fmt.Sprintf("Classify this SMS for fraud. Sender: %s. Text: %s", req.PhoneNumber, req.Text)
		}
		return fmt.Sprintf("Classify this SMS for fraud. Text: %s", req.Text)
	case domain.KindCall:
		if req.CallDuration > 0 {
			return fmt.Sprintf("Classify this phone call for fraud. Caller: %s. Duration: %d seconds.", req.PhoneNumber, req.CallDuration)
		}
		return fmt.Sprintf("Classify this phone call for fraud. Caller: %s.", req.PhoneNumber)
	case domain.KindEmail:
		if req.Sender != "" {
			return fmt.Sprintf("Classify this email for phishing. From: %s. Subject: %s. Body: %s", req.Sender, req.Subject, req.Body)
		}
		return fmt.Sprintf("Classify this email for phishing. Subject: %s. Body: %s", req.Subject, req.Body)
	case domain.KindURL:
		return fmt.Sprintf("Classify this URL for phishing. Do not fetch it. URL: %s", req.URL)
	}
	return ""
}
