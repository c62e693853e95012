package scans

import "context"

// Classifier port (interface untuk remote verdict service)
type Classifier interface {
	Classify(ctx context.Context, req Request) (Result, error)
}

// Repository port (interface untuk history persistence)
type Repository interface {
	Save(ctx context.Context, item *HistoryItem) error
	Latest(ctx context.Context, limit int) ([]*HistoryItem, error)
	Delete(ctx context.Context, id HistoryID) error
	Summary(ctx context.Context, sinceDays int) (Summary, error)
}

// EvidenceStore port (interface untuk archiving flagged content)
type EvidenceStore interface {
	Archive(ctx context.Context, key string, content []byte) (string, error)
}
