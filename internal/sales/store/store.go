package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/actor"
	actorstore "github.com/entreprenapp/backoffice/internal/actor/store"
	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/catalog"
	catalogstore "github.com/entreprenapp/backoffice/internal/catalog/store"
	"github.com/entreprenapp/backoffice/internal/database"
	"github.com/entreprenapp/backoffice/internal/sales"
)

// lockTimeout bounds how long a transaction waits for a saler row held by
// a concurrent numbering. Exceeding it surfaces as ErrConcurrencyConflict.
const lockTimeout = "5s"

const documentsNumberKey = "documents_saler_kind_number_key"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

const documentColumns = `d.id, d.kind, d.saler_id, d.customer_id, d.date, d.number, d.validity_date, d.is_paid,
	d.is_active, d.created_at, d.created_by, d.modified_at, d.modified_by, d.deleted_at, d.deleted_by`

func scanDocument(s scanner) (*sales.Document, error) {
	var doc sales.Document

	dest := append([]any{
		&doc.ID, &doc.Kind, &doc.SalerID, &doc.CustomerID, &doc.Date, &doc.Number, &doc.ValidityDate, &doc.IsPaid,
	}, doc.Record.ScanTargets()...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	return &doc, nil
}

// uuidArray renders ids for a "= ANY($n::uuid[])" parameter.
func uuidArray(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}

func (s *Store) Begin(ctx context.Context) (sales.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SET LOCAL lock_timeout = '"+lockTimeout+"'"); err != nil {
		_ = dbTx.Rollback()
		return nil, fmt.Errorf("setting lock timeout: %w", err)
	}

	return &Tx{tx: dbTx}, nil
}

func (s *Store) GetDocument(ctx context.Context, kind sales.Kind, id uuid.UUID) (*sales.Document, error) {
	doc, err := getDocument(ctx, s.db, kind, id, false)
	if err != nil {
		return nil, err
	}

	if err := loadParties(ctx, s.db, []*sales.Document{doc}); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, kind sales.Kind, filter sales.ListFilter) ([]*sales.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.kind = $1`
	args := []any{kind}

	if !filter.IncludeInactive {
		query += " AND d.is_active"
	}

	if filter.SalerID != nil {
		args = append(args, *filter.SalerID)
		query += fmt.Sprintf(" AND d.saler_id = $%d", len(args))
	}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND d.customer_id = $%d", len(args))
	}

	if filter.IsPaid != nil {
		args = append(args, *filter.IsPaid)
		query += fmt.Sprintf(" AND d.is_paid = $%d", len(args))
	}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND d.date >= $%d", len(args))
	}

	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND d.date <= $%d", len(args))
	}

	query += " ORDER BY d.date DESC, d.number DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %ss: %w", kind, err)
	}
	defer rows.Close()

	var docs []*sales.Document

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", kind, err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", kind, err)
	}

	if err := loadLines(ctx, s.db, docs); err != nil {
		return nil, err
	}

	if err := loadParties(ctx, s.db, docs); err != nil {
		return nil, err
	}

	return docs, nil
}

func (s *Store) SetPaid(ctx context.Context, doc *sales.Document) error {
	query := `UPDATE documents SET is_paid = $1, modified_at = $2, modified_by = $3 WHERE id = $4 AND kind = $5`

	res, err := s.db.ExecContext(ctx, query, doc.IsPaid, doc.ModifiedAt, doc.ModifiedBy, doc.ID, doc.Kind)
	if err != nil {
		return database.Wrap(err, "marking invoice paid")
	}

	return database.ExpectOne(res, "marking invoice paid")
}

func (s *Store) SetDocumentActive(ctx context.Context, doc *sales.Document) error {
	query := `
		UPDATE documents
		SET is_active = $1, deleted_at = $2, deleted_by = $3, modified_at = $4, modified_by = $5
		WHERE id = $6 AND kind = $7
	`

	res, err := s.db.ExecContext(ctx, query,
		doc.Active,
		doc.DeletedAt,
		doc.DeletedBy,
		doc.ModifiedAt,
		doc.ModifiedBy,
		doc.ID,
		doc.Kind,
	)
	if err != nil {
		return database.Wrap(err, "setting "+string(doc.Kind)+" active flag")
	}

	return database.ExpectOne(res, "setting "+string(doc.Kind)+" active flag")
}

func getDocument(ctx context.Context, q querier, kind sales.Kind, id uuid.UUID, forUpdate bool) (*sales.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.id = $1 AND d.kind = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	doc, err := scanDocument(q.QueryRowContext(ctx, query, id, kind))
	if err != nil {
		return nil, database.Wrap(err, "getting "+string(kind))
	}

	if err := loadLines(ctx, q, []*sales.Document{doc}); err != nil {
		return nil, err
	}

	return doc, nil
}

// loadLines fills the line set of every document with one query. Items are
// read as they are now.
func loadLines(ctx context.Context, q querier, docs []*sales.Document) error {
	if len(docs) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*sales.Document, len(docs))
	ids := make([]uuid.UUID, 0, len(docs))

	for _, d := range docs {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	query := `
		SELECT ` + catalogstore.Columns("i") + `,
			dl.document_id, ol.id, ol.quantity, ol.is_active, ol.created_at, ol.created_by,
			ol.modified_at, ol.modified_by, ol.deleted_at, ol.deleted_by
		FROM document_lines dl
		JOIN order_lines ol ON ol.id = dl.order_line_id
		JOIN items i ON i.id = ol.item_id
		WHERE dl.document_id = ANY($1::uuid[])
		ORDER BY dl.document_id, dl.position
	`

	rows, err := q.QueryContext(ctx, query, uuidArray(ids))
	if err != nil {
		return fmt.Errorf("loading order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			docID uuid.UUID
			line  sales.OrderLine
		)

		extra := append([]any{&docID, &line.ID, &line.Quantity}, line.Record.ScanTargets()...)

		item, err := catalogstore.Scan(rows, extra...)
		if err != nil {
			return fmt.Errorf("scanning order line: %w", err)
		}

		line.Item = item
		line.ItemID = item.ID

		if d, ok := byID[docID]; ok {
			d.Lines = append(d.Lines, &line)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating order line rows: %w", err)
	}

	return nil
}

// loadParties attaches salers and customers to docs.
func loadParties(ctx context.Context, q querier, docs []*sales.Document) error {
	salerIDs := make(map[uuid.UUID]bool)
	customerIDs := make(map[uuid.UUID]bool)

	for _, d := range docs {
		salerIDs[d.SalerID] = true
		customerIDs[d.CustomerID] = true
	}

	salers, err := getActors(ctx, q, actor.KindSaler, salerIDs)
	if err != nil {
		return err
	}

	customers, err := getActors(ctx, q, actor.KindCustomer, customerIDs)
	if err != nil {
		return err
	}

	for _, d := range docs {
		d.Saler = salers[d.SalerID]
		d.Customer = customers[d.CustomerID]
	}

	return nil
}

func getActors(ctx context.Context, q querier, kind actor.Kind, set map[uuid.UUID]bool) (map[uuid.UUID]*actor.Actor, error) {
	found := make(map[uuid.UUID]*actor.Actor, len(set))
	if len(set) == 0 {
		return found, nil
	}

	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s a WHERE a.id = ANY($1::uuid[])`,
		actorstore.Columns(kind, "a"), actorstore.Table(kind))

	rows, err := q.QueryContext(ctx, query, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("loading %ss: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := actorstore.Scan(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", kind, err)
		}

		found[a.ID] = a
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", kind, err)
	}

	return found, nil
}

// Tx implements sales.Tx on a database transaction.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) GetActor(ctx context.Context, kind actor.Kind, id uuid.UUID) (*actor.Actor, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s a WHERE a.id = $1`, actorstore.Columns(kind, "a"), actorstore.Table(kind))

	a, err := actorstore.Scan(t.tx.QueryRowContext(ctx, query, id), kind)
	if err != nil {
		return nil, database.Wrap(err, "getting "+string(kind))
	}

	return a, nil
}

func (t *Tx) GetItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Item, error) {
	found := make(map[uuid.UUID]*catalog.Item, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query := `SELECT ` + catalogstore.Columns("i") + ` FROM items i WHERE i.id = ANY($1::uuid[])`

	rows, err := t.tx.QueryContext(ctx, query, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := catalogstore.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		found[item.ID] = item
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}

	return found, nil
}

// NextNumber increments the counter in place. The UPDATE takes the saler's
// row lock, so a concurrent numbering for the same saler waits for this
// transaction to finish while other salers are unaffected.
func (t *Tx) NextNumber(ctx context.Context, salerID uuid.UUID, kind sales.Kind) (int64, error) {
	column, err := counterColumn(kind)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`UPDATE salers SET %[1]s = %[1]s + 1 WHERE id = $1 RETURNING %[1]s`, column)

	var n int64
	if err := t.tx.QueryRowContext(ctx, query, salerID).Scan(&n); err != nil {
		return 0, database.Wrap(err, "incrementing "+column)
	}

	return n, nil
}

func counterColumn(kind sales.Kind) (string, error) {
	switch kind {
	case sales.KindEstimate:
		return "estimate_number", nil
	case sales.KindInvoice:
		return "invoice_number", nil
	}

	return "", fmt.Errorf("unknown document kind: %q", kind)
}

func (t *Tx) GetDocumentForUpdate(ctx context.Context, kind sales.Kind, id uuid.UUID) (*sales.Document, error) {
	return getDocument(ctx, t.tx, kind, id, true)
}

func (t *Tx) InsertDocument(ctx context.Context, doc *sales.Document) error {
	query := `
		INSERT INTO documents (kind, saler_id, customer_id, date, number, validity_date, is_paid,
			is_active, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := t.tx.QueryRowContext(ctx, query,
		doc.Kind,
		doc.SalerID,
		doc.CustomerID,
		doc.Date,
		doc.Number,
		doc.ValidityDate,
		doc.IsPaid,
		doc.Active,
		doc.CreatedAt,
		doc.CreatedBy,
	).Scan(&doc.ID)
	if database.IsUniqueViolation(err, documentsNumberKey) {
		return fmt.Errorf("inserting %s: %w: number %d already issued", doc.Kind, apperr.ErrConcurrencyConflict, doc.Number)
	}

	if err != nil {
		return database.Wrap(err, "inserting "+string(doc.Kind))
	}

	return nil
}

func (t *Tx) UpdateDocument(ctx context.Context, doc *sales.Document) error {
	query := `
		UPDATE documents
		SET customer_id = $1, date = $2, validity_date = $3, is_paid = $4, modified_at = $5, modified_by = $6
		WHERE id = $7
	`

	res, err := t.tx.ExecContext(ctx, query,
		doc.CustomerID,
		doc.Date,
		doc.ValidityDate,
		doc.IsPaid,
		doc.ModifiedAt,
		doc.ModifiedBy,
		doc.ID,
	)
	if err != nil {
		return database.Wrap(err, "updating "+string(doc.Kind))
	}

	return database.ExpectOne(res, "updating "+string(doc.Kind))
}

func (t *Tx) InsertLine(ctx context.Context, line *sales.OrderLine) error {
	query := `
		INSERT INTO order_lines (item_id, quantity, is_active, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := t.tx.QueryRowContext(ctx, query,
		line.ItemID,
		line.Quantity,
		line.Active,
		line.CreatedAt,
		line.CreatedBy,
	).Scan(&line.ID)
	if err != nil {
		return database.Wrap(err, "inserting order line")
	}

	return nil
}

func (t *Tx) UpdateLine(ctx context.Context, line *sales.OrderLine) error {
	query := `UPDATE order_lines SET item_id = $1, quantity = $2, modified_at = $3, modified_by = $4 WHERE id = $5`

	res, err := t.tx.ExecContext(ctx, query, line.ItemID, line.Quantity, line.ModifiedAt, line.ModifiedBy, line.ID)
	if err != nil {
		return database.Wrap(err, "updating order line")
	}

	return database.ExpectOne(res, "updating order line")
}

func (t *Tx) AttachLines(ctx context.Context, documentID uuid.UUID, lines []*sales.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	var (
		values []string
		args   = []any{documentID}
	)

	for i, l := range lines {
		args = append(args, l.ID, i)
		values = append(values, fmt.Sprintf("($1, $%d, $%d)", len(args)-1, len(args)))
	}

	query := `
		INSERT INTO document_lines (document_id, order_line_id, position)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (document_id, order_line_id) DO UPDATE SET position = EXCLUDED.position
	`

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return database.Wrap(err, "attaching order lines")
	}

	return nil
}

func (t *Tx) DetachLines(ctx context.Context, documentID uuid.UUID, lineIDs []uuid.UUID) error {
	query := `DELETE FROM document_lines WHERE document_id = $1 AND order_line_id = ANY($2::uuid[])`

	if _, err := t.tx.ExecContext(ctx, query, documentID, uuidArray(lineIDs)); err != nil {
		return database.Wrap(err, "detaching order lines")
	}

	return nil
}

func (t *Tx) DeleteOrphanLines(ctx context.Context, lineIDs []uuid.UUID) error {
	query := `
		DELETE FROM order_lines ol
		WHERE ol.id = ANY($1::uuid[])
			AND NOT EXISTS (SELECT 1 FROM document_lines dl WHERE dl.order_line_id = ol.id)
	`

	if _, err := t.tx.ExecContext(ctx, query, uuidArray(lineIDs)); err != nil {
		return database.Wrap(err, "deleting orphan order lines")
	}

	return nil
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return database.Wrap(err, "committing transaction")
	}

	return nil
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
