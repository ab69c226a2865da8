package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type DepartmentStore struct{}

func NewDepartmentStore() *DepartmentStore {
	return &DepartmentStore{}
}

func (s *DepartmentStore) GetByID(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.Department, error) {
	d := &domain.Department{}
	err := sess.QueryRow(ctx,
		`SELECT id, name FROM departments WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}
