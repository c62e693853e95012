package scans

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/neura/fraudshield/internal/application"
	domain "github.com/neura/fraudshield/internal/domain/scans"
)

// DefaultHistoryLimit caps history reads when the caller passes no limit.
const DefaultHistoryLimit = 50

// Service implements the scan use-cases. It drives build, classify, fan-out
// and owns the degrade policy for classifier outages. Safe for concurrent use;
// each scan's working data is owned by its own call.
type Service struct {
	Classifier domain.Classifier
	Repo       domain.Repository
	Evidence   domain.EvidenceStore // optional, may be nil
	Clock      application.Clock
}

// Scan runs the full pipeline for user-initiated input. A ValidationError is
// the only error that reaches the caller; classifier outages are absorbed
// into a degraded result so a flaky network never blocks the user flow.
func (s *Service) Scan(ctx context.Context, kind domain.Kind, raw domain.RawFields) (domain.Result, error) {
	return s.run(ctx, kind, raw)
}

// ScanUnattended is the same pipeline invoked by passive interception. The
// downstream fan-out differs (alert instead of display), which is the
// caller's concern; persistence behaves identically.
func (s *Service) ScanUnattended(ctx context.Context, kind domain.Kind, raw domain.RawFields) (domain.Result, error) {
	return s.run(ctx, kind, raw)
}

func (s *Service) run(ctx context.Context, kind domain.Kind, raw domain.RawFields) (domain.Result, error) {
	req, err := domain.Build(kind, raw)
	if err != nil {
		// Caller-input defect, no fallback applies.
		return domain.Result{}, err
	}

	// Exactly one classifier call per invocation; retries belong to callers.
	result, err := s.Classifier.Classify(ctx, req)
	if err != nil {
		if !errors.Is(err, domain.ErrClassifierUnavailable) {
			log.Printf("scan: unexpected classifier error kind=%s err=%v", kind, err)
		}
		result = domain.DegradedResult()
	}

	// Fire-and-forget history write on a detached context: a completed
	// classification is recorded even if the caller has gone away.
	go s.record(context.Background(), req, result)

	return result, nil
}

// record persists one HistoryItem, best-effort. Storage failures are logged
// and swallowed here; history is a side channel, not part of the scan
// contract.
func (s *Service) record(ctx context.Context, req domain.Request, result domain.Result) {
	item := &domain.HistoryItem{
		ID:            domain.HistoryID(uuid.New().String()),
		Kind:          req.Kind,
		IsFraud:       result.IsFraud,
		Confidence:    result.Confidence,
		RiskLevel:     result.RiskLevel,
		Message:       result.Message,
		SourceMessage: req.SourceMessage(),
		Timestamp:     s.Clock.Now().UnixMilli(),
	}
	if err := s.Repo.Save(ctx, item); err != nil {
		log.Printf("scan: history write failed kind=%s id=%s err=%v", item.Kind, item.ID, err)
	}

	if result.IsFraud && s.Evidence != nil {
		if _, err := s.Evidence.Archive(ctx, string(item.ID), []byte(item.SourceMessage)); err != nil {
			log.Printf("scan: evidence archive failed id=%s err=%v", item.ID, err)
		}
	}
}

// Latest returns the most recent history, newest first. A failed read is
// indistinguishable from an empty history at this boundary; the repository
// error is logged and swallowed.
func (s *Service) Latest(ctx context.Context, limit int) []*domain.HistoryItem {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	items, err := s.Repo.Latest(ctx, limit)
	if err != nil {
		log.Printf("scan: history read failed err=%v", err)
		return []*domain.HistoryItem{}
	}
	if items == nil {
		items = []*domain.HistoryItem{}
	}
	return items
}

// Delete removes one history item by id, best-effort. Deleting an id that
// does not exist is not an error.
func (s *Service) Delete(ctx context.Context, id domain.HistoryID) {
	if err := s.Repo.Delete(ctx, id); err != nil {
		log.Printf("scan: history delete failed id=%s err=%v", id, err)
	}
}

// Summary aggregates stored results over the last N days.
func (s *Service) Summary(ctx context.Context, sinceDays int) (domain.Summary, error) {
	return s.Repo.Summary(ctx, sinceDays)
}
