package infant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const infantCols = `id, record_id, infant_name, mother_id, dob, facility, district,
	prophylaxis, status,
	pcr1_due, pcr1_done, pcr1_result,
	pcr2_due, pcr2_done, pcr2_result,
	antibody12mo_due, antibody12mo_done, antibody12mo_result,
	rapid_test_18mo_due, rapid_test_18mo_done, rapid_test_18mo_result,
	antibody24mo_due, antibody24mo_done, antibody24mo_result,
	final_outcome, created_at, updated_at`

func scanInfant(row pgx.Row) (*Infant, error) {
	var inf Infant
	var results [5]*string
	var outcome *string
	err := row.Scan(&inf.ID, &inf.RecordID, &inf.InfantName, &inf.MotherID, &inf.DOB,
		&inf.Facility, &inf.District, &inf.Prophylaxis, &inf.Status,
		&inf.PCR1.DueDate, &inf.PCR1.DoneDate, &results[0],
		&inf.PCR2.DueDate, &inf.PCR2.DoneDate, &results[1],
		&inf.Antibody12Mo.DueDate, &inf.Antibody12Mo.DoneDate, &results[2],
		&inf.RapidTest18Mo.DueDate, &inf.RapidTest18Mo.DoneDate, &results[3],
		&inf.Antibody24Mo.DueDate, &inf.Antibody24Mo.DoneDate, &results[4],
		&outcome, &inf.CreatedAt, &inf.UpdatedAt)
	if err != nil {
		return nil, err
	}
	slots := []*TestRecord{&inf.PCR1, &inf.PCR2, &inf.Antibody12Mo, &inf.RapidTest18Mo, &inf.Antibody24Mo}
	for i, slot := range slots {
		if results[i] != nil {
			r := TestResult(*results[i])
			slot.Result = &r
		}
	}
	if outcome != nil {
		o := Outcome(*outcome)
		inf.FinalOutcome = &o
	}
	return &inf, nil
}

func resultArg(tr TestRecord) *string {
	if tr.Result == nil {
		return nil
	}
	s := string(*tr.Result)
	return &s
}

func outcomeArg(o *Outcome) *string {
	if o == nil {
		return nil
	}
	s := string(*o)
	return &s
}

func (r *repoPG) Create(ctx context.Context, inf *Infant) error {
	if inf.ID == uuid.Nil {
		inf.ID = uuid.New()
	}
	now := time.Now().UTC()
	inf.CreatedAt = now
	inf.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO infants (id, record_id, infant_name, mother_id, dob, facility, district,
			prophylaxis, status,
			pcr1_due, pcr1_done, pcr1_result,
			pcr2_due, pcr2_done, pcr2_result,
			antibody12mo_due, antibody12mo_done, antibody12mo_result,
			rapid_test_18mo_due, rapid_test_18mo_done, rapid_test_18mo_result,
			antibody24mo_due, antibody24mo_done, antibody24mo_result,
			final_outcome, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,
			$10,$11,$12,$13,$14,$15,$16,$17,$18,
			$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		inf.ID, inf.RecordID, inf.InfantName, inf.MotherID, inf.DOB, inf.Facility, inf.District,
		inf.Prophylaxis, inf.Status,
		inf.PCR1.DueDate, inf.PCR1.DoneDate, resultArg(inf.PCR1),
		inf.PCR2.DueDate, inf.PCR2.DoneDate, resultArg(inf.PCR2),
		inf.Antibody12Mo.DueDate, inf.Antibody12Mo.DoneDate, resultArg(inf.Antibody12Mo),
		inf.RapidTest18Mo.DueDate, inf.RapidTest18Mo.DoneDate, resultArg(inf.RapidTest18Mo),
		inf.Antibody24Mo.DueDate, inf.Antibody24Mo.DoneDate, resultArg(inf.Antibody24Mo),
		outcomeArg(inf.FinalOutcome), inf.CreatedAt, inf.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateRecordID
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Infant, error) {
	inf, err := scanInfant(r.pool.QueryRow(ctx, `SELECT `+infantCols+` FROM infants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inf, err
}

func (r *repoPG) GetByRecordID(ctx context.Context, recordID string) (*Infant, error) {
	inf, err := scanInfant(r.pool.QueryRow(ctx, `SELECT `+infantCols+` FROM infants WHERE record_id = $1`, recordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inf, err
}

func (r *repoPG) Update(ctx context.Context, inf *Infant) error {
	inf.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE infants SET status=$2,
			pcr1_done=$3, pcr1_result=$4,
			pcr2_done=$5, pcr2_result=$6,
			antibody12mo_done=$7, antibody12mo_result=$8,
			rapid_test_18mo_done=$9, rapid_test_18mo_result=$10,
			antibody24mo_done=$11, antibody24mo_result=$12,
			final_outcome=$13, updated_at=$14
		WHERE id = $1`,
		inf.ID, inf.Status,
		inf.PCR1.DoneDate, resultArg(inf.PCR1),
		inf.PCR2.DoneDate, resultArg(inf.PCR2),
		inf.Antibody12Mo.DoneDate, resultArg(inf.Antibody12Mo),
		inf.RapidTest18Mo.DoneDate, resultArg(inf.RapidTest18Mo),
		inf.Antibody24Mo.DoneDate, resultArg(inf.Antibody24Mo),
		outcomeArg(inf.FinalOutcome), inf.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) list(ctx context.Context, where string, args ...interface{}) ([]*Infant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+infantCols+` FROM infants`+where+` ORDER BY record_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Infant
	for rows.Next() {
		inf, err := scanInfant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, inf)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context) ([]*Infant, error) {
	return r.list(ctx, ``)
}

func (r *repoPG) ListByDistrict(ctx context.Context, district string) ([]*Infant, error) {
	return r.list(ctx, ` WHERE district = $1`, district)
}

func (r *repoPG) ListByFacility(ctx context.Context, facility string) ([]*Infant, error) {
	return r.list(ctx, ` WHERE facility = $1`, facility)
}

// NextRecordID allocates the next INF-#### id. Numbering starts at INF-1001.
func (r *repoPG) NextRecordID(ctx context.Context) (string, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(CAST(SUBSTRING(record_id FROM 5) AS INTEGER)), 1000) FROM infants`).Scan(&max)
	if err != nil {
		return "", fmt.Errorf("allocate record id: %w", err)
	}
	return fmt.Sprintf("INF-%d", max+1), nil
}
