package infant

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores infant records. Listing is unpaginated: the tracked
// cohort is small and the aggregators need the full scoped set.
type Repository interface {
	Create(ctx context.Context, inf *Infant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Infant, error)
	GetByRecordID(ctx context.Context, recordID string) (*Infant, error)
	Update(ctx context.Context, inf *Infant) error
	List(ctx context.Context) ([]*Infant, error)
	ListByDistrict(ctx context.Context, district string) ([]*Infant, error)
	ListByFacility(ctx context.Context, facility string) ([]*Infant, error)
	NextRecordID(ctx context.Context) (string, error)
}
