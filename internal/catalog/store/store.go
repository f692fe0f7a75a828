package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/catalog"
	"github.com/entreprenapp/backoffice/internal/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Columns is the item column list understood by Scan, prefixed with alias.
func Columns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.label, %[1]s.description, %[1]s.price_duty_free, %[1]s.tax_rate,
		%[1]s.is_active, %[1]s.created_at, %[1]s.created_by, %[1]s.modified_at, %[1]s.modified_by,
		%[1]s.deleted_at, %[1]s.deleted_by`, alias)
}

// Scan reads an item selected with Columns. Other stores that join items use
// it too.
func Scan(s scanner, extra ...any) (*catalog.Item, error) {
	var item catalog.Item

	dest := append([]any{&item.ID, &item.Label, &item.Description, &item.PriceDutyFree, &item.TaxRate},
		item.Record.ScanTargets()...)
	dest = append(dest, extra...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	return &item, nil
}

func (s *Store) CreateItems(ctx context.Context, items []*catalog.Item) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO items (label, description, price_duty_free, tax_rate, is_active, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	for _, item := range items {
		err := dbTx.QueryRowContext(ctx, query,
			item.Label,
			item.Description,
			item.PriceDutyFree,
			item.TaxRate,
			item.Active,
			item.CreatedAt,
			item.CreatedBy,
		).Scan(&item.ID)
		if err != nil {
			return database.Wrap(err, "creating item")
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	query := `SELECT ` + Columns("i") + ` FROM items i WHERE i.id = $1`

	item, err := Scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, database.Wrap(err, "getting item")
	}

	return item, nil
}

func (s *Store) ListItems(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Item, error) {
	query := `SELECT ` + Columns("i") + ` FROM items i WHERE TRUE`

	var args []any

	if !filter.IncludeInactive {
		query += " AND i.is_active"
	}

	if filter.Search != "" {
		args = append(args, filter.Search)
		query += fmt.Sprintf(" AND (i.label ILIKE '%%' || $%[1]d || '%%' OR i.description ILIKE '%%' || $%[1]d || '%%')", len(args))
	}

	query += " ORDER BY i.label ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []*catalog.Item

	for rows.Next() {
		item, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}

	return items, nil
}

func (s *Store) UpdateItem(ctx context.Context, item *catalog.Item) error {
	query := `
		UPDATE items
		SET label = $1, description = $2, price_duty_free = $3, tax_rate = $4, modified_at = $5, modified_by = $6
		WHERE id = $7
	`

	res, err := s.db.ExecContext(ctx, query,
		item.Label,
		item.Description,
		item.PriceDutyFree,
		item.TaxRate,
		item.ModifiedAt,
		item.ModifiedBy,
		item.ID,
	)
	if err != nil {
		return database.Wrap(err, "updating item")
	}

	return database.ExpectOne(res, "updating item")
}

func (s *Store) SetItemActive(ctx context.Context, item *catalog.Item) error {
	query := `
		UPDATE items
		SET is_active = $1, deleted_at = $2, deleted_by = $3, modified_at = $4, modified_by = $5
		WHERE id = $6
	`

	res, err := s.db.ExecContext(ctx, query,
		item.Active,
		item.DeletedAt,
		item.DeletedBy,
		item.ModifiedAt,
		item.ModifiedBy,
		item.ID,
	)
	if err != nil {
		return database.Wrap(err, "setting item active flag")
	}

	return database.ExpectOne(res, "setting item active flag")
}
