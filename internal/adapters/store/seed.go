package store

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/happyhours/orderhub/internal/domain"
)

// seedFile is the YAML fixture format loaded at startup. Happy hour bounds
// are written as "HH:MM" wall clock times.
type seedFile struct {
	Users []struct {
		ID           string `yaml:"id"`
		Email        string `yaml:"email"`
		Name         string `yaml:"name"`
		Role         string `yaml:"role"`
		Subscription bool   `yaml:"subscription"`
	} `yaml:"users"`
	Establishments []struct {
		ID              string `yaml:"id"`
		Name            string `yaml:"name"`
		OwnerID         string `yaml:"owner_id"`
		HappyHoursStart string `yaml:"happy_hours_start"`
		HappyHoursEnd   string `yaml:"happy_hours_end"`
	} `yaml:"establishments"`
	Beverages []struct {
		ID              string  `yaml:"id"`
		Name            string  `yaml:"name"`
		EstablishmentID string  `yaml:"establishment_id"`
		Price           float64 `yaml:"price"`
	} `yaml:"beverages"`
}

// LoadSeed reads a YAML fixture and upserts its records into the store.
// Loading is idempotent; records already present are overwritten.
func LoadSeed(ctx context.Context, s *SQLiteStore, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, u := range seed.Users {
		role := domain.Role(u.Role)
		if role != domain.RoleClient && role != domain.RolePartner {
			return fmt.Errorf("seed user %s: unknown role %q", u.ID, u.Role)
		}
		if err := s.UpsertUser(ctx, domain.User{
			ID: u.ID, Email: u.Email, Name: u.Name, Role: role,
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		if err := s.SetSubscription(ctx, u.ID, u.Subscription); err != nil {
			return fmt.Errorf("seed subscription for %s: %w", u.ID, err)
		}
	}

	for _, e := range seed.Establishments {
		start, err := parseClock(e.HappyHoursStart)
		if err != nil {
			return fmt.Errorf("seed establishment %s: happy_hours_start: %w", e.ID, err)
		}
		end, err := parseClock(e.HappyHoursEnd)
		if err != nil {
			return fmt.Errorf("seed establishment %s: happy_hours_end: %w", e.ID, err)
		}
		if err := s.UpsertEstablishment(ctx, domain.Establishment{
			ID: e.ID, Name: e.Name, OwnerID: e.OwnerID,
			HappyHoursStart: start, HappyHoursEnd: end,
		}); err != nil {
			return fmt.Errorf("seed establishment %s: %w", e.ID, err)
		}
	}

	for _, b := range seed.Beverages {
		if err := s.UpsertBeverage(ctx, domain.Beverage{
			ID: b.ID, Name: b.Name, EstablishmentID: b.EstablishmentID, Price: b.Price,
		}); err != nil {
			return fmt.Errorf("seed beverage %s: %w", b.ID, err)
		}
	}

	log.Info().
		Int("users", len(seed.Users)).
		Int("establishments", len(seed.Establishments)).
		Int("beverages", len(seed.Beverages)).
		Str("path", path).
		Msg("seed fixture loaded")
	return nil
}

// parseClock converts "HH:MM" to minutes of day.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}
