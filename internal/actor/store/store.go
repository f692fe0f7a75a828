package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// Table returns the table holding actors of kind.
func Table(kind actor.Kind) string {
	if kind == actor.KindSaler {
		return "salers"
	}

	return "customers"
}

// Columns is the column list understood by Scan for kind, prefixed with
// alias. Customers have no counters and read them as zero.
func Columns(kind actor.Kind, alias string) string {
	counters := "0, 0"
	if kind == actor.KindSaler {
		counters = fmt.Sprintf("%[1]s.estimate_number, %[1]s.invoice_number", alias)
	}

	return fmt.Sprintf(`%[1]s.id, %[1]s.name, %[1]s.address, %[1]s.city, %[1]s.postal_code, %[1]s.country,
		%[1]s.email, %[1]s.phone, %[2]s, %[1]s.is_active, %[1]s.created_at, %[1]s.created_by,
		%[1]s.modified_at, %[1]s.modified_by, %[1]s.deleted_at, %[1]s.deleted_by`, alias, counters)
}

// Scan reads an actor selected with Columns.
func Scan(s scanner, kind actor.Kind) (*actor.Actor, error) {
	a := actor.Actor{Kind: kind}

	dest := append([]any{
		&a.ID, &a.Name, &a.Address, &a.City, &a.PostalCode, &a.Country,
		&a.Email, &a.Phone, &a.EstimateNumber, &a.InvoiceNumber,
	}, a.Record.ScanTargets()...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	return &a, nil
}

func (s *Store) CreateActor(ctx context.Context, a *actor.Actor) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, address, city, postal_code, country, email, phone, is_active, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, Table(a.Kind))

	err := s.db.QueryRowContext(ctx, query,
		a.Name,
		a.Address,
		a.City,
		a.PostalCode,
		a.Country,
		a.Email,
		a.Phone,
		a.Active,
		a.CreatedAt,
		a.CreatedBy,
	).Scan(&a.ID)
	if err != nil {
		return database.Wrap(err, "creating "+string(a.Kind))
	}

	return nil
}

func (s *Store) GetActor(ctx context.Context, kind actor.Kind, id uuid.UUID) (*actor.Actor, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s a WHERE a.id = $1`, Columns(kind, "a"), Table(kind))

	a, err := Scan(s.db.QueryRowContext(ctx, query, id), kind)
	if err != nil {
		return nil, database.Wrap(err, "getting "+string(kind))
	}

	return a, nil
}

func (s *Store) ListActors(ctx context.Context, kind actor.Kind, filter actor.ListFilter) ([]*actor.Actor, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s a WHERE TRUE`, Columns(kind, "a"), Table(kind))

	var args []any

	if !filter.IncludeInactive {
		query += " AND a.is_active"
	}

	if filter.Search != "" {
		args = append(args, filter.Search)
		query += fmt.Sprintf(" AND (a.name ILIKE '%%' || $%[1]d || '%%' OR a.city ILIKE '%%' || $%[1]d || '%%')", len(args))
	}

	query += " ORDER BY a.name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %ss: %w", kind, err)
	}
	defer rows.Close()

	var actors []*actor.Actor

	for rows.Next() {
		a, err := Scan(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", kind, err)
		}

		actors = append(actors, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", kind, err)
	}

	return actors, nil
}

// UpdateActor writes the editable fields. The numbering counters are never
// part of this statement.
func (s *Store) UpdateActor(ctx context.Context, a *actor.Actor) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, address = $2, city = $3, postal_code = $4, country = $5, email = $6, phone = $7,
			modified_at = $8, modified_by = $9
		WHERE id = $10
	`, Table(a.Kind))

	res, err := s.db.ExecContext(ctx, query,
		a.Name,
		a.Address,
		a.City,
		a.PostalCode,
		a.Country,
		a.Email,
		a.Phone,
		a.ModifiedAt,
		a.ModifiedBy,
		a.ID,
	)
	if err != nil {
		return database.Wrap(err, "updating "+string(a.Kind))
	}

	return database.ExpectOne(res, "updating "+string(a.Kind))
}

func (s *Store) SetActorActive(ctx context.Context, a *actor.Actor) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_active = $1, deleted_at = $2, deleted_by = $3, modified_at = $4, modified_by = $5
		WHERE id = $6
	`, Table(a.Kind))

	res, err := s.db.ExecContext(ctx, query,
		a.Active,
		a.DeletedAt,
		a.DeletedBy,
		a.ModifiedAt,
		a.ModifiedBy,
		a.ID,
	)
	if err != nil {
		return database.Wrap(err, "setting "+string(a.Kind)+" active flag")
	}

	return database.ExpectOne(res, "setting "+string(a.Kind)+" active flag")
}
