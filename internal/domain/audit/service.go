package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/emtct/emtct/internal/domain/infant"
)

// Service writes and reads the audit trail. It satisfies infant.AuditRecorder
// so every infant mutation lands here.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

var _ infant.AuditRecorder = (*Service)(nil)

// Record converts field changes into entries stamped with one shared
// timestamp per mutation.
func (s *Service) Record(ctx context.Context, actorEmail, recordID string, changes []infant.Change) error {
	if len(changes) == 0 {
		return nil
	}
	ts := s.now().UTC()
	entries := make([]Entry, 0, len(changes))
	for _, ch := range changes {
		entries = append(entries, Entry{
			Timestamp:      ts,
			UserEmail:      actorEmail,
			InfantRecordID: recordID,
			Field:          ch.Field,
			OldValue:       ch.Old,
			NewValue:       ch.New,
		})
	}
	if err := s.repo.Append(ctx, entries); err != nil {
		return fmt.Errorf("append audit entries: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByInfant(ctx context.Context, recordID string) ([]Entry, error) {
	return s.repo.ListByInfant(ctx, recordID)
}
