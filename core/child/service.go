package child

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("child not found")

type (
	Repository interface {
		CreateChild(ctx context.Context, c Child) (Child, error)
		GetChildByID(ctx context.Context, id string) (Child, error)
		QueryChildrenByKindergarten(ctx context.Context, kindergartenID string) ([]Child, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewChild) (Child, error)
		GetByID(ctx context.Context, id string) (Child, error)
		QueryByKindergarten(ctx context.Context, kindergartenID string) ([]Child, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nc NewChild) (Child, error) {
	if err := nc.Validate(); err != nil {
		return Child{}, err
	}
	c := Child{
		ID:             uuid.New().String(),
		Name:           nc.Name,
		KindergartenID: nc.KindergartenID,
		GroupID:        nc.GroupID,
		ParentEmail:    nc.ParentEmail,
		CreatedAt:      time.Now().UTC(),
	}
	return svc.repo.CreateChild(ctx, c)
}

func (svc *service) GetByID(ctx context.Context, id string) (Child, error) {
	return svc.repo.GetChildByID(ctx, id)
}

func (svc *service) QueryByKindergarten(ctx context.Context, kindergartenID string) ([]Child, error) {
	return svc.repo.QueryChildrenByKindergarten(ctx, kindergartenID)
}
