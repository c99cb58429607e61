package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/raphaelgruber/boardroom/internal/db"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/raphaelgruber/boardroom/internal/prompts"
)

// Registry owns the seated board personas.
type Registry struct {
	store  Store
	logger *slog.Logger
}

// NewRegistry creates a persona registry over store.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger}
}

// Initialize seeds the persona catalog when the store holds no persona.
// Safe to call repeatedly and from several processes at once.
func (r *Registry) Initialize(ctx context.Context) error {
	existing, err := r.store.ListPersonas(ctx, false)
	if err != nil {
		return fmt.Errorf("list personas: %w", err)
	}
	if len(existing) > 0 {
		r.logger.Info("persona registry already initialized", "personas", len(existing))
		return nil
	}

	created := 0
	for _, p := range prompts.Personas() {
		if err := r.store.CreatePersona(ctx, p); err != nil {
			if errors.Is(err, db.ErrAlreadyExists) {
				r.logger.Debug("persona seeded concurrently", "role", p.Role)
				continue
			}
			return fmt.Errorf("seed persona %s: %w", p.Role, err)
		}
		created++
	}
	r.logger.Info("persona registry initialized", "created", created)
	return nil
}

// List returns personas ordered by role name ascending.
func (r *Registry) List(ctx context.Context, activeOnly bool) ([]models.Persona, error) {
	personas, err := r.store.ListPersonas(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		personas = slices.DeleteFunc(personas, func(p models.Persona) bool { return !p.Active() })
	}
	slices.SortFunc(personas, func(a, b models.Persona) int {
		return strings.Compare(string(a.Role), string(b.Role))
	})
	return personas, nil
}

// SetStatus changes the availability of the persona seated in role.
func (r *Registry) SetStatus(ctx context.Context, role models.Role, status models.PersonaStatus) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownRole, role)
	}
	if _, err := models.ParsePersonaStatus(string(status)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := r.store.UpdatePersonaStatus(ctx, role, status); err != nil {
		return err
	}
	r.logger.Info("persona status changed", "role", role, "status", status)
	return nil
}
