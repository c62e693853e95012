package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/neura/fraudshield/internal/domain/scans"
)

// Endpoint path per scan kind, matching the classifier's wire contract.
var endpoints = map[domain.Kind]string{
	domain.KindSMS:   "/scan/sms",
	domain.KindCall:  "/scan/call",
	domain.KindEmail: "/scan/email",
	domain.KindURL:   "/scan/url",
}

// Client talks to the remote classifier. One round trip per Classify call;
// no retry or fallback policy of its own.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a classifier client. The timeout bounds the whole round
// trip; an expired deadline surfaces as ErrClassifierUnavailable like any
// other transport failure.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type smsPayload struct {
	Text        string `json:"text"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type callPayload struct {
	PhoneNumber  string `json:"phone_number"`
	CallDuration int    `json:"call_duration,omitempty"`
}

type emailPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"sender,omitempty"`
}

type urlPayload struct {
	URL string `json:"url"`
}

func payloadFor(req domain.Request) any {
	switch req.Kind {
	case domain.KindSMS:
		return smsPayload{Text: req.Text, PhoneNumber: req.PhoneNumber}
	case domain.KindCall:
		return callPayload{PhoneNumber: req.PhoneNumber, CallDuration: req.CallDuration}
	case domain.KindEmail:
		return emailPayload{Subject: req.Subject, Body: req.Body, Sender: req.Sender}
	case domain.KindURL:
		return urlPayload{URL: req.URL}
	}
	return nil
}

// Classify posts the shaped payload for the request's kind and decodes the
// verdict. Network errors, non-2xx statuses and undecodable bodies are all
// reported as the single ErrClassifierUnavailable condition.
func (c *Client) Classify(ctx context.Context, req domain.Request) (domain.Result, error) {
	path, ok := endpoints[req.Kind]
	if !ok {
		return domain.Result{}, fmt.Errorf("%w: no endpoint for kind %q", domain.ErrClassifierUnavailable, req.Kind)
	}

	body, err := json.Marshal(payloadFor(req))
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: encode request: %v", domain.ErrClassifierUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: build request: %v", domain.ErrClassifierUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the log line, then give up.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return domain.Result{}, fmt.Errorf("%w: status %d body=%q", domain.ErrClassifierUnavailable, resp.StatusCode, snippet)
	}

	var result domain.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.Result{}, fmt.Errorf("%w: decode response: %v", domain.ErrClassifierUnavailable, err)
	}
	return result, nil
}
