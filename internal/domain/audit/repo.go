package audit

import "context"

// Repository is append-only: entries are never updated or deleted.
type Repository interface {
	Append(ctx context.Context, entries []Entry) error
	List(ctx context.Context, limit, offset int) ([]Entry, int, error)
	ListByInfant(ctx context.Context, recordID string) ([]Entry, error)
}
