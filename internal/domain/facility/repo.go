package facility

import "context"

type Repository interface {
	ListFacilities(ctx context.Context) ([]Facility, error)
	ListDistricts(ctx context.Context) ([]District, error)
	GetFacility(ctx context.Context, name string) (*Facility, error)
}
