package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emtct/emtct/internal/platform/auth"
)

// Service handles login and account administration. Login is a mock email
// lookup: no password is checked, but the issued token is a real HS256 JWT so
// every later request is verified and scoped from its claims.
type Service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
}

func NewService(repo Repository, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

// Login returns the account and a signed bearer token, or ErrNotFound /
// ErrInactive.
func (s *Service) Login(ctx context.Context, email string) (*User, string, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", err
	}
	if u.Status != StatusActive {
		return nil, "", ErrInactive
	}
	token, err := auth.NewToken(s.secret, u.Actor(), s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return u, token, nil
}

// Draft is the account-creation input.
type Draft struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     auth.Role `json:"role"`
	Facility string    `json:"facility"`
	District string    `json:"district"`
}

func (s *Service) Create(ctx context.Context, d Draft) (*User, error) {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return nil, fmt.Errorf("invalid email %q", d.Email)
	}
	if strings.TrimSpace(d.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !d.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", d.Role)
	}
	if d.Role == auth.RoleFacility && d.Facility == "" {
		return nil, fmt.Errorf("facility role requires a facility")
	}
	if d.Role == auth.RoleDistrict && d.District == "" {
		return nil, fmt.Errorf("district role requires a district")
	}
	u := &User{
		Email:    d.Email,
		Name:     strings.TrimSpace(d.Name),
		Role:     d.Role,
		Facility: d.Facility,
		District: d.District,
		Status:   StatusActive,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status AccountStatus) (*User, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
