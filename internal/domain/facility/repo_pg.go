package facility

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("facility not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) ListFacilities(ctx context.Context) ([]Facility, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, code, district FROM facilities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var facilities []Facility
	for rows.Next() {
		var f Facility
		if err := rows.Scan(&f.Name, &f.Code, &f.District); err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

func (r *repoPG) ListDistricts(ctx context.Context) ([]District, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, province FROM districts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var districts []District
	for rows.Next() {
		var d District
		if err := rows.Scan(&d.Name, &d.Province); err != nil {
			return nil, err
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

func (r *repoPG) GetFacility(ctx context.Context, name string) (*Facility, error) {
	var f Facility
	err := r.pool.QueryRow(ctx,
		`SELECT name, code, district FROM facilities WHERE name = $1`, name).
		Scan(&f.Name, &f.Code, &f.District)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
