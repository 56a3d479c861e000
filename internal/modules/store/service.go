package store

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pipeline"
	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
)

// Service defines store business logic.
type Service interface {
	CreateStore(ctx context.Context, caller auth.CallerID, req StoreRequest) (*Store, error)
	GetStore(ctx context.Context, id string) (*Store, error)
	ListStores(ctx context.Context, caller auth.CallerID) ([]*Store, error)
	RenameStore(ctx context.Context, caller auth.CallerID, id string, req StoreRequest) (*Store, error)
	DeleteStore(ctx context.Context, caller auth.CallerID, id string) (*Store, error)
}

type service struct {
	repo     Repository
	pipeline *pipeline.Pipeline
	log      *zap.Logger
}

// NewService creates a store service. Rename and delete run through p, whose
// guard must be an OwnershipGuard over the same repository.
func NewService(repo Repository, p *pipeline.Pipeline, log *zap.Logger) Service {
	return &service{repo: repo, pipeline: p, log: log}
}

// CreateStore makes caller the owner of a new store. There is no existing
// store to authorize against, so only authentication is checked.
func (s *service) CreateStore(ctx context.Context, caller auth.CallerID, req StoreRequest) (*Store, error) {
	if caller == "" {
		return nil, apperr.Unauthenticated()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	st := &Store{ID: uuid.New(), OwnerID: string(caller), Name: req.Name}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info("store created", zap.String("store_id", st.ID.String()), zap.String("owner_id", st.OwnerID))
	return st, nil
}

func (s *service) GetStore(ctx context.Context, id string) (*Store, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListStores(ctx context.Context, caller auth.CallerID) ([]*Store, error) {
	if caller == "" {
		return nil, apperr.Unauthenticated()
	}
	return s.repo.ListByOwner(ctx, string(caller))
}

func (s *service) RenameStore(ctx context.Context, caller auth.CallerID, id string, req StoreRequest) (*Store, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Store]{
		Op:      "store.rename",
		Caller:  caller,
		StoreID: id,
		Payload: req,
		Apply: func(ctx context.Context) (*Store, error) {
			return s.repo.Rename(ctx, id, string(caller), req.Name)
		},
	})
}

// DeleteStore removes an empty store. Catalog rows still pointing at the
// store block the delete with a constraint violation.
func (s *service) DeleteStore(ctx context.Context, caller auth.CallerID, id string) (*Store, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Store]{
		Op:      "store.delete",
		Caller:  caller,
		StoreID: id,
		Apply: func(ctx context.Context) (*Store, error) {
			return s.repo.Delete(ctx, id, string(caller))
		},
	})
}
