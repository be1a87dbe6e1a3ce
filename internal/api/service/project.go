package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/store"
	"github.com/fastplanner/planner/pkg/slogx"
)

type ProjectService struct {
	Store store.Store
}

// Create stores the project and makes the creator its admin in one
// transaction.
func (s *ProjectService) Create(ctx context.Context, ownerID int64, name, description string) (domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, ErrValidation
	}

	now := time.Now().UTC()
	p := domain.Project{
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		id, err := tx.Projects().CreateProject(ctx, p)
		if err != nil {
			return internal("create project", err)
		}
		p.ID = id

		if _, err := tx.Memberships().AddMember(ctx, domain.Membership{
			UserID:    ownerID,
			ProjectID: id,
			Role:      domain.RoleAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return internal("add owner", err)
		}

		_, err = tx.History().AppendHistory(ctx, domain.HistoryEntry{
			UserID:      ownerID,
			ProjectID:   &id,
			Action:      domain.HistoryCreated,
			Description: "Created project " + name,
			CreatedAt:   now,
		})
		if err != nil {
			return internal("append history", err)
		}
		return nil
	})
	if err != nil {
		return domain.Project{}, err
	}

	slogx.FromContext(ctx).Info("project created",
		slog.Int64("project_id", p.ID),
		slog.Int64("owner_id", ownerID),
	)
	return p, nil
}

// Get loads a project. Access is enforced by the caller.
func (s *ProjectService) Get(ctx context.Context, id int64) (domain.Project, error) {
	p, err := s.Store.Projects().GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, internal("load project", err)
	}
	return p, nil
}
