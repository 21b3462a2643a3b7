package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/emtct/emtct/internal/domain/audit"
	"github.com/emtct/emtct/internal/domain/infant"
	"github.com/emtct/emtct/internal/domain/user"
	"github.com/emtct/emtct/internal/platform/auth"
)

type seedFacility struct {
	name     string
	code     string
	district string
	province string
}

var seedFacilities = []seedFacility{
	{"Kibuli Health Centre", "KH-001", "Kampala", "Central"},
	{"Mulago Hospital", "MH-002", "Kampala", "Central"},
	{"Entebbe General", "EG-003", "Wakiso", "Central"},
	{"Kira Health Clinic", "KC-004", "Wakiso", "Central"},
}

var seedUsers = []user.Draft{
	{Email: "admin@emtct.gov", Name: "Sarah Drasner", Role: auth.RoleAdmin},
	{Email: "kampala.lead@emtct.gov", Name: "John Doe", Role: auth.RoleDistrict, District: "Kampala"},
	{Email: "kibuli.focal@emtct.gov", Name: "Mary Jane", Role: auth.RoleFacility, Facility: "Kibuli Health Centre", District: "Kampala"},
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo registry, accounts and a 20-infant cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("infants")

			cfg, pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()
			ctx := context.Background()

			// Registry
			for _, f := range seedFacilities {
				if _, err := pool.Exec(ctx, `
					INSERT INTO districts (name, province) VALUES ($1, $2)
					ON CONFLICT (name) DO NOTHING`, f.district, f.province); err != nil {
					return fmt.Errorf("seed district %s: %w", f.district, err)
				}
				if _, err := pool.Exec(ctx, `
					INSERT INTO facilities (name, code, district) VALUES ($1, $2, $3)
					ON CONFLICT (name) DO NOTHING`, f.name, f.code, f.district); err != nil {
					return fmt.Errorf("seed facility %s: %w", f.name, err)
				}
			}
			fmt.Printf("Seeded %d facilities.\n", len(seedFacilities))

			// Accounts
			userSvc := user.NewService(user.NewRepoPG(pool), []byte(cfg.JWTSecret), time.Hour)
			for _, d := range seedUsers {
				if _, err := userSvc.Create(ctx, d); err != nil && !errors.Is(err, user.ErrDuplicateEmail) {
					return fmt.Errorf("seed user %s: %w", d.Email, err)
				}
			}
			fmt.Printf("Seeded %d accounts.\n", len(seedUsers))

			// Demo cohort, registered through the service so schedules, ids
			// and audit entries come out the same as live registrations.
			auditSvc := audit.NewService(audit.NewRepoPG(pool))
			infantSvc := infant.NewService(infant.NewRepoPG(pool), auditSvc, infant.Options{
				DueSoonDays:     cfg.DueSoonDays,
				DefaultFacility: cfg.DefaultFacility,
				DefaultDistrict: cfg.DefaultDistrict,
			})

			seeder := auth.Actor{Email: "seed@emtct.gov", Name: "Seed", Role: auth.RoleAdmin}
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			now := time.Now()

			for i := 1; i <= count; i++ {
				f := seedFacilities[rng.Intn(len(seedFacilities))]
				// DOBs spread across the last 30 months so the cohort covers
				// every schedule stage.
				dob := now.AddDate(0, 0, -rng.Intn(900))

				actor := auth.Actor{
					Email:    seeder.Email,
					Name:     seeder.Name,
					Role:     auth.RoleAdmin,
					Facility: f.name,
					District: f.district,
				}
				_, err := infantSvc.Register(ctx, actor, infant.Draft{
					InfantName:  fmt.Sprintf("Infant %d", i),
					MotherID:    fmt.Sprintf("MOM-%d", 2000+i),
					DOB:         dob.Format("2006-01-02"),
					Prophylaxis: infant.ProphylaxisNVP,
				})
				if err != nil {
					return fmt.Errorf("seed infant %d: %w", i, err)
				}
			}
			fmt.Printf("Seeded %d infants.\n", count)
			return nil
		},
	}
	cmd.Flags().Int("infants", 20, "Number of demo infants to register")
	return cmd
}
