package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/checkkid/checkkid/core/child"
)

type childRepository struct {
	db *sqlx.DB
}

var _ child.Repository = (*childRepository)(nil)

func NewChildRepository(db *sqlx.DB) *childRepository {
	return &childRepository{db: db}
}

type childRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	KindergartenID string         `db:"kindergarten_id"`
	GroupID        sql.NullString `db:"group_id"`
	ParentEmail    sql.NullString `db:"parent_email"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (repo childRepository) unrow(row childRow) child.Child {
	return child.Child{
		ID:             row.ID,
		Name:           row.Name,
		KindergartenID: row.KindergartenID,
		GroupID:        row.GroupID.String,
		ParentEmail:    row.ParentEmail.String,
		CreatedAt:      row.CreatedAt,
	}
}

func (repo childRepository) CreateChild(ctx context.Context, c child.Child) (child.Child, error) {
	const q = `
	INSERT INTO child (id, name, kindergarten_id, group_id, parent_email, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repo.db.ExecContext(ctx, q,
		c.ID, c.Name, c.KindergartenID, nullStr(c.GroupID), nullStr(c.ParentEmail), c.CreatedAt.UTC())
	if err != nil {
		return child.Child{}, errors.Wrap(err, "inserting child")
	}
	return c, nil
}

func (repo childRepository) GetChildByID(ctx context.Context, id string) (child.Child, error) {
	var row childRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM child WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return child.Child{}, child.ErrNotFound
		}
		return child.Child{}, errors.Wrap(err, "getting child by id")
	}
	return repo.unrow(row), nil
}

func (repo childRepository) QueryChildrenByKindergarten(ctx context.Context, kindergartenID string) ([]child.Child, error) {
	var rows []childRow
	var err error
	if kindergartenID == "" {
		err = repo.db.SelectContext(ctx, &rows, `SELECT * FROM child ORDER BY name`)
	} else {
		err = repo.db.SelectContext(ctx, &rows,
			`SELECT * FROM child WHERE kindergarten_id = $1 ORDER BY name`, kindergartenID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying children")
	}

	children := make([]child.Child, 0, len(rows))
	for _, row := range rows {
		children = append(children, repo.unrow(row))
	}
	return children, nil
}
