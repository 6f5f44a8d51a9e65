package inmemdb

import (
	"context"
	"sort"

	"github.com/checkkid/checkkid/core/child"
)

type childRepository struct {
	db *childTable
}

var _ child.Repository = (*childRepository)(nil)

func NewChildRepository(db *DB) *childRepository {
	return &childRepository{db: db.child}
}

func (repo *childRepository) CreateChild(ctx context.Context, c child.Child) (child.Child, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *childRepository) GetChildByID(ctx context.Context, id string) (child.Child, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return child.Child{}, child.ErrNotFound
}

func (repo *childRepository) QueryChildrenByKindergarten(ctx context.Context, kindergartenID string) ([]child.Child, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	children := make([]child.Child, 0)
	for _, c := range repo.db.table {
		if kindergartenID == "" || c.KindergartenID == kindergartenID {
			children = append(children, *c)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children, nil
}
