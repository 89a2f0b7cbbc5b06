package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

var _ repository.StoreRepository = (*StoreRepo)(nil)

// StoreRepo implementación del puerto StoreRepository sobre PostgreSQL.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador de persistencia para tiendas.
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

// GetByCode obtiene una tienda por código.
func (r *StoreRepo) GetByCode(ctx context.Context, code string) (*entity.Store, error) {
	query := `SELECT code, name, address, created_at, updated_at FROM store WHERE code = $1`
	var s entity.Store
	err := r.q.QueryRow(ctx, query, code).Scan(&s.Code, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get store", err)
	}
	return &s, nil
}

// List todas las tiendas ordenadas por código.
func (r *StoreRepo) List(ctx context.Context) ([]*entity.Store, error) {
	rows, err := r.q.Query(ctx, `SELECT code, name, address, created_at, updated_at FROM store ORDER BY code`)
	if err != nil {
		return nil, wrap("list stores", err)
	}
	defer rows.Close()

	var list []*entity.Store
	for rows.Next() {
		var s entity.Store
		if err := rows.Scan(&s.Code, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, wrap("scan store", err)
		}
		list = append(list, &s)
	}
	return list, wrap("list stores", rows.Err())
}
