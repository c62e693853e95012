package scans

import "fmt"

// RawFields carries untyped caller input before validation. Optional fields
// left empty are omitted from the built request, not defaulted.
type RawFields struct {
	Text         string
	PhoneNumber  string
	CallDuration int // seconds; 0 means absent
	Subject      string
	Body         string
	Sender       string
	URL          string
}

// Request is the single sum type over the four scan kinds. Construct only
// via Build so shape invariants hold.
type Request struct {
	Kind Kind

	// SMS
	Text string

	// SMS + CALL
	PhoneNumber  string
	CallDuration int

	// EMAIL
	Subject string
	Body    string
	Sender  string

	// URL
	URL string
}

// ValidationError names the first missing required field for a kind.
type ValidationError struct {
	Kind         Kind
	MissingField string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scan %s: required field %q is empty", e.Kind, e.MissingField)
}

// Build validates raw input into a Request. The only validation rule is
// emptiness of required fields, checked in the fixed order of the wire
// contract (SMS: text; CALL: phone_number; EMAIL: subject, body; URL: url).
func Build(kind Kind, raw RawFields) (Request, error) {
	switch kind {
	case KindSMS:
		if raw.Text == "" {
			return Request{}, &ValidationError{Kind: kind, MissingField: "text"}
		}
		return Request{Kind: kind, Text: raw.Text, PhoneNumber: raw.PhoneNumber}, nil

	case KindCall:
		if raw.PhoneNumber == "" {
			return Request{}, &ValidationError{Kind: kind, MissingField: "phone_number"}
		}
		return Request{Kind: kind, PhoneNumber: raw.PhoneNumber, CallDuration: raw.CallDuration}, nil

	case KindEmail:
		if raw.Subject == "" {
			return Request{}, &ValidationError{Kind: kind, MissingField: "subject"}
		}
		if raw.Body == "" {
			return Request{}, &ValidationError{Kind: kind, MissingField: "body"}
		}
		return Request{Kind: kind, Subject: raw.Subject, Body: raw.Body, Sender: raw.Sender}, nil

	case KindURL:
		if raw.URL == "" {
			return Request{}, &ValidationError{Kind: kind, MissingField: "url"}
		}
		return Request{Kind: kind, URL: raw.URL}, nil
	}

	return Request{}, fmt.Errorf("unknown scan kind: %q", kind)
}

// SourceMessage condenses the scanned content into a single display string
// for history rows. Long bodies are truncated so list rendering stays cheap.
func (r Request) SourceMessage() string {
	var s string
	switch r.Kind {
	case KindSMS:
		s = r.Text
	case KindCall:
		s = r.PhoneNumber
	case KindEmail:
		s = r.Subject + ": " + r.Body
	case KindURL:
		s = r.URL
	}
	const max = 140
	if len(s) > max {
		return s[:max]
	}
	return s
}
