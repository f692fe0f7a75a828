// Package memstore is an in-memory sales.Repository. A transaction holds
// the store exclusively and works on a private copy of the data that
// replaces the live copy on commit, so an aborted transaction leaves no
// trace.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/catalog"
	"github.com/entreprenapp/backoffice/internal/sales"
)

var errTxDone = errors.New("transaction already committed or rolled back")

type state struct {
	salers    map[uuid.UUID]actor.Actor
	customers map[uuid.UUID]actor.Actor
	items     map[uuid.UUID]catalog.Item
	documents map[uuid.UUID]sales.Document
	lines     map[uuid.UUID]sales.OrderLine
	// links holds each document's line ids in order.
	links map[uuid.UUID][]uuid.UUID
}

func (s *state) clone() *state {
	links := make(map[uuid.UUID][]uuid.UUID, len(s.links))
	for id, ids := range s.links {
		links[id] = slices.Clone(ids)
	}

	return &state{
		salers:    maps.Clone(s.salers),
		customers: maps.Clone(s.customers),
		items:     maps.Clone(s.items),
		documents: maps.Clone(s.documents),
		lines:     maps.Clone(s.lines),
		links:     links,
	}
}

type Store struct {
	// sem is held by whoever reads or writes data.
	sem  chan struct{}
	data *state
}

func New() *Store {
	return &Store{
		sem: make(chan struct{}, 1),
		data: &state{
			salers:    make(map[uuid.UUID]actor.Actor),
			customers: make(map[uuid.UUID]actor.Actor),
			items:     make(map[uuid.UUID]catalog.Item),
			documents: make(map[uuid.UUID]sales.Document),
			lines:     make(map[uuid.UUID]sales.OrderLine),
			links:     make(map[uuid.UUID][]uuid.UUID),
		},
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

// PutActor stores a saler or customer, assigning an id when it has none.
func (s *Store) PutActor(a *actor.Actor) {
	s.sem <- struct{}{}
	defer s.release()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	if a.Kind == actor.KindSaler {
		s.data.salers[a.ID] = *a
	} else {
		s.data.customers[a.ID] = *a
	}
}

// PutItem stores a catalog item, assigning an id when it has none.
func (s *Store) PutItem(item *catalog.Item) {
	s.sem <- struct{}{}
	defer s.release()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	s.data.items[item.ID] = *item
}

// Saler returns the stored state of a saler, counters included.
func (s *Store) Saler(id uuid.UUID) (actor.Actor, bool) {
	s.sem <- struct{}{}
	defer s.release()

	a, ok := s.data.salers[id]

	return a, ok
}

// LineCount is the number of order lines held, attached or not.
func (s *Store) LineCount() int {
	s.sem <- struct{}{}
	defer s.release()

	return len(s.data.lines)
}

func (s *Store) Begin(ctx context.Context) (sales.Tx, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &tx{store: s, data: s.data.clone()}, nil
}

func (s *Store) GetDocument(ctx context.Context, kind sales.Kind, id uuid.UUID) (*sales.Document, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	doc, err := s.data.document(kind, id)
	if err != nil {
		return nil, err
	}

	s.data.parties(doc)

	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, kind sales.Kind, filter sales.ListFilter) ([]*sales.Document, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	var docs []*sales.Document

	for _, row := range s.data.documents {
		if row.Kind != kind || !matches(row, filter) {
			continue
		}

		doc := s.data.hydrate(row)
		s.data.parties(doc)
		docs = append(docs, doc)
	}

	slices.SortFunc(docs, func(a, b *sales.Document) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}

		return cmp.Compare(b.Number, a.Number)
	})

	return docs, nil
}

func matches(d sales.Document, f sales.ListFilter) bool {
	switch {
	case !f.IncludeInactive && !d.Active:
		return false
	case f.SalerID != nil && d.SalerID != *f.SalerID:
		return false
	case f.CustomerID != nil && d.CustomerID != *f.CustomerID:
		return false
	case f.IsPaid != nil && d.IsPaid != *f.IsPaid:
		return false
	case f.From != nil && d.Date.Before(*f.From):
		return false
	case f.To != nil && d.Date.After(*f.To):
		return false
	}

	return true
}

func (s *Store) SetPaid(ctx context.Context, doc *sales.Document) error {
	return s.updateRow(ctx, doc, func(row *sales.Document) {
		row.IsPaid = doc.IsPaid
		row.ModifiedAt = doc.ModifiedAt
		row.ModifiedBy = doc.ModifiedBy
	})
}

func (s *Store) SetDocumentActive(ctx context.Context, doc *sales.Document) error {
	return s.updateRow(ctx, doc, func(row *sales.Document) {
		row.Record = doc.Record
	})
}

func (s *Store) updateRow(ctx context.Context, doc *sales.Document, apply func(row *sales.Document)) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	row, ok := s.data.documents[doc.ID]
	if !ok || row.Kind != doc.Kind {
		return fmt.Errorf("updating %s: %w", doc.Kind, apperr.ErrNotFound)
	}

	apply(&row)
	s.data.documents[doc.ID] = row

	return nil
}

func (d *state) document(kind sales.Kind, id uuid.UUID) (*sales.Document, error) {
	row, ok := d.documents[id]
	if !ok || row.Kind != kind {
		return nil, fmt.Errorf("getting %s: %w", kind, apperr.ErrNotFound)
	}

	return d.hydrate(row), nil
}

// hydrate returns a fresh document with its lines and their current items.
func (d *state) hydrate(row sales.Document) *sales.Document {
	doc := row
	doc.Lines = nil

	for _, id := range d.links[row.ID] {
		line := d.lines[id]
		item := d.items[line.ItemID]
		line.Item = &item
		doc.Lines = append(doc.Lines, &line)
	}

	return &doc
}

func (d *state) parties(doc *sales.Document) {
	if a, ok := d.salers[doc.SalerID]; ok {
		doc.Saler = &a
	}

	if c, ok := d.customers[doc.CustomerID]; ok {
		doc.Customer = &c
	}
}

type tx struct {
	store *Store
	data  *state
	done  bool
}

func (t *tx) GetActor(_ context.Context, kind actor.Kind, id uuid.UUID) (*actor.Actor, error) {
	table := t.data.customers
	if kind == actor.KindSaler {
		table = t.data.salers
	}

	a, ok := table[id]
	if !ok {
		return nil, fmt.Errorf("getting %s: %w", kind, apperr.ErrNotFound)
	}

	return &a, nil
}

func (t *tx) GetItems(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Item, error) {
	found := make(map[uuid.UUID]*catalog.Item, len(ids))

	for _, id := range ids {
		if item, ok := t.data.items[id]; ok {
			found[id] = &item
		}
	}

	return found, nil
}

func (t *tx) NextNumber(_ context.Context, salerID uuid.UUID, kind sales.Kind) (int64, error) {
	saler, ok := t.data.salers[salerID]
	if !ok {
		return 0, fmt.Errorf("incrementing %s number: %w", kind, apperr.ErrNotFound)
	}

	var n int64

	switch kind {
	case sales.KindEstimate:
		saler.EstimateNumber++
		n = saler.EstimateNumber
	case sales.KindInvoice:
		saler.InvoiceNumber++
		n = saler.InvoiceNumber
	default:
		return 0, fmt.Errorf("unknown document kind: %q", kind)
	}

	t.data.salers[salerID] = saler

	return n, nil
}

func (t *tx) GetDocumentForUpdate(_ context.Context, kind sales.Kind, id uuid.UUID) (*sales.Document, error) {
	return t.data.document(kind, id)
}

func (t *tx) InsertDocument(_ context.Context, doc *sales.Document) error {
	for _, row := range t.data.documents {
		if row.SalerID == doc.SalerID && row.Kind == doc.Kind && row.Number == doc.Number {
			return fmt.Errorf("inserting %s: %w: number %d already issued", doc.Kind, apperr.ErrConcurrencyConflict, doc.Number)
		}
	}

	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	t.data.documents[doc.ID] = row(doc)

	return nil
}

func (t *tx) UpdateDocument(_ context.Context, doc *sales.Document) error {
	if _, ok := t.data.documents[doc.ID]; !ok {
		return fmt.Errorf("updating %s: %w", doc.Kind, apperr.ErrNotFound)
	}

	t.data.documents[doc.ID] = row(doc)

	return nil
}

// row strips what is stored elsewhere.
func row(doc *sales.Document) sales.Document {
	r := *doc
	r.Lines = nil
	r.Saler = nil
	r.Customer = nil

	return r
}

func (t *tx) InsertLine(_ context.Context, line *sales.OrderLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}

	r := *line
	r.Item = nil
	t.data.lines[line.ID] = r

	return nil
}

func (t *tx) UpdateLine(_ context.Context, line *sales.OrderLine) error {
	if _, ok := t.data.lines[line.ID]; !ok {
		return fmt.Errorf("updating order line: %w", apperr.ErrNotFound)
	}

	r := *line
	r.Item = nil
	t.data.lines[line.ID] = r

	return nil
}

func (t *tx) AttachLines(_ context.Context, documentID uuid.UUID, lines []*sales.OrderLine) error {
	ids := make([]uuid.UUID, 0, len(lines))

	for _, l := range lines {
		if _, ok := t.data.lines[l.ID]; !ok {
			return fmt.Errorf("attaching order line %s: %w", l.ID, apperr.ErrNotFound)
		}

		ids = append(ids, l.ID)
	}

	t.data.links[documentID] = ids

	return nil
}

func (t *tx) DetachLines(_ context.Context, documentID uuid.UUID, lineIDs []uuid.UUID) error {
	t.data.links[documentID] = slices.DeleteFunc(t.data.links[documentID], func(id uuid.UUID) bool {
		return slices.Contains(lineIDs, id)
	})

	return nil
}

func (t *tx) DeleteOrphanLines(_ context.Context, lineIDs []uuid.UUID) error {
	for _, id := range lineIDs {
		if !t.referenced(id) {
			delete(t.data.lines, id)
		}
	}

	return nil
}

func (t *tx) referenced(lineID uuid.UUID) bool {
	for _, ids := range t.data.links {
		if slices.Contains(ids, lineID) {
			return true
		}
	}

	return false
}

func (t *tx) Commit() error {
	if t.done {
		return errTxDone
	}

	t.done = true
	t.store.data = t.data
	t.store.release()

	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}

	t.done = true
	t.store.release()

	return nil
}
