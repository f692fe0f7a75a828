package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/catalog"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=sales
type Repository interface {
	Begin(ctx context.Context) (Tx, error)
	GetDocument(ctx context.Context, kind Kind, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, kind Kind, filter ListFilter) ([]*Document, error)
	SetPaid(ctx context.Context, doc *Document) error
	SetDocumentActive(ctx context.Context, doc *Document) error
}

// Tx is one atomic unit of work. Nothing written through it is visible
// before Commit; Rollback after Commit does nothing.
type Tx interface {
	GetActor(ctx context.Context, kind actor.Kind, id uuid.UUID) (*actor.Actor, error)
	// GetItems returns the items found among ids, keyed by id.
	GetItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Item, error)
	// NextNumber increments the saler's counter for kind and returns the new
	// value. The saler stays locked until the transaction ends.
	NextNumber(ctx context.Context, salerID uuid.UUID, kind Kind) (int64, error)
	GetDocumentForUpdate(ctx context.Context, kind Kind, id uuid.UUID) (*Document, error)
	InsertDocument(ctx context.Context, doc *Document) error
	UpdateDocument(ctx context.Context, doc *Document) error
	InsertLine(ctx context.Context, line *OrderLine) error
	UpdateLine(ctx context.Context, line *OrderLine) error
	// AttachLines makes lines the document's line set, in order.
	AttachLines(ctx context.Context, documentID uuid.UUID, lines []*OrderLine) error
	DetachLines(ctx context.Context, documentID uuid.UUID, lineIDs []uuid.UUID) error
	// DeleteOrphanLines deletes those of lineIDs no document references.
	DeleteOrphanLines(ctx context.Context, lineIDs []uuid.UUID) error
	Commit() error
	Rollback() error
}

// ConversionMode selects what an invoice converted from an estimate holds.
type ConversionMode string

const (
	// ConversionShared attaches the estimate's own order lines to the
	// invoice. Editing a line through either document changes both.
	ConversionShared ConversionMode = "shared"
	// ConversionCopy gives the invoice fresh copies of the lines.
	ConversionCopy ConversionMode = "copy"
)

func ParseConversionMode(s string) (ConversionMode, error) {
	switch m := ConversionMode(s); m {
	case ConversionShared, ConversionCopy:
		return m, nil
	}

	return "", fmt.Errorf("unknown conversion mode: %q", s)
}

type Service struct {
	repo Repository
	mode ConversionMode
	now  func() time.Time
}

type Option func(*Service)

func WithConversionMode(m ConversionMode) Option {
	return func(s *Service) {
		s.mode = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, mode: ConversionShared, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Params describe a document as submitted for create or update.
// ValidityDate is required for estimates and ignored for invoices; IsPaid
// is ignored for estimates.
type Params struct {
	SalerID      uuid.UUID
	CustomerID   uuid.UUID
	Date         time.Time
	ValidityDate *time.Time
	IsPaid       bool
	Lines        []LineInput
}

type ListFilter struct {
	SalerID         *uuid.UUID
	CustomerID      *uuid.UUID
	IsPaid          *bool
	From            *time.Time
	To              *time.Time
	IncludeInactive bool
}

// Create validates p, then numbers and stores a new document in one
// transaction. No number is consumed when validation fails.
func (s *Service) Create(ctx context.Context, who audit.Identity, kind Kind, p Params) (*Document, error) {
	p = normalize(kind, p)
	if err := validate(kind, p); err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	saler, err := loadParty(ctx, tx, who, actor.KindSaler, p.SalerID, uuid.Nil)
	if err != nil {
		return nil, err
	}

	customer, err := loadParty(ctx, tx, who, actor.KindCustomer, p.CustomerID, uuid.Nil)
	if err != nil {
		return nil, err
	}

	items, err := loadItems(ctx, tx, p.Lines, nil)
	if err != nil {
		return nil, err
	}

	plan, err := planLines(nil, p.Lines, items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, l := range plan.Created {
		l.Record = audit.New(who, now)
	}

	doc := &Document{
		Kind:         kind,
		SalerID:      saler.ID,
		CustomerID:   customer.ID,
		Saler:        saler,
		Customer:     customer,
		Date:         p.Date,
		ValidityDate: p.ValidityDate,
		IsPaid:       p.IsPaid,
		Lines:        plan.Final,
		Record:       audit.New(who, now),
	}

	if err := s.save(ctx, tx, doc, plan); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing %s: %w", kind, err)
	}

	slog.Info("document numbered", "kind", kind, "saler_id", doc.SalerID, "number", doc.Number, "document_id", doc.ID)

	return doc, nil
}

// Update replaces a document's header and line set. Lines named by LineID
// are kept and edited in place, other inputs become new lines and lines
// no longer submitted are detached and deleted once unreferenced.
func (s *Service) Update(ctx context.Context, who audit.Identity, kind Kind, id uuid.UUID, p Params) (*Document, error) {
	p = normalize(kind, p)
	if err := validate(kind, p); err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	doc, err := tx.GetDocumentForUpdate(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if !doc.VisibleTo(who) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}

	if doc.Numbered() && p.SalerID != doc.SalerID {
		return nil, apperr.Invalid("saler_id", "cannot change once the document is numbered")
	}

	saler, err := loadParty(ctx, tx, who, actor.KindSaler, p.SalerID, doc.SalerID)
	if err != nil {
		return nil, err
	}

	customer, err := loadParty(ctx, tx, who, actor.KindCustomer, p.CustomerID, doc.CustomerID)
	if err != nil {
		return nil, err
	}

	items, err := loadItems(ctx, tx, p.Lines, doc.Lines)
	if err != nil {
		return nil, err
	}

	plan, err := planLines(doc.Lines, p.Lines, items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, l := range plan.Created {
		l.Record = audit.New(who, now)
	}

	for _, l := range plan.Changed {
		l.Touch(who, now)
	}

	doc.SalerID = saler.ID
	doc.Saler = saler
	doc.CustomerID = customer.ID
	doc.Customer = customer
	doc.Date = p.Date
	doc.ValidityDate = p.ValidityDate
	doc.IsPaid = p.IsPaid
	doc.Lines = plan.Final
	doc.Touch(who, now)

	if err := s.save(ctx, tx, doc, plan); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing %s: %w", kind, err)
	}

	return doc, nil
}

// ConvertEstimate creates an unpaid invoice dated today for the estimate's
// saler and customer, carrying the estimate's lines. The invoice takes the
// next invoice number of the saler.
func (s *Service) ConvertEstimate(ctx context.Context, who audit.Identity, estimateID uuid.UUID) (*Document, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	est, err := tx.GetDocumentForUpdate(ctx, KindEstimate, estimateID)
	if err != nil {
		return nil, err
	}

	if !est.VisibleTo(who) {
		return nil, fmt.Errorf("estimate %s: %w", estimateID, apperr.ErrNotFound)
	}

	saler, err := tx.GetActor(ctx, actor.KindSaler, est.SalerID)
	if err != nil {
		return nil, err
	}

	customer, err := tx.GetActor(ctx, actor.KindCustomer, est.CustomerID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	var plan linePlan

	switch s.mode {
	case ConversionCopy:
		for _, l := range est.Lines {
			c := &OrderLine{ItemID: l.ItemID, Item: l.Item, Quantity: l.Quantity, Record: audit.New(who, now)}
			plan.Created = append(plan.Created, c)
			plan.Final = append(plan.Final, c)
		}
	default:
		plan.Final = append(plan.Final, est.Lines...)
	}

	inv := &Document{
		Kind:       KindInvoice,
		SalerID:    saler.ID,
		CustomerID: customer.ID,
		Saler:      saler,
		Customer:   customer,
		Date:       dateOf(now),
		IsPaid:     false,
		Lines:      plan.Final,
		Record:     audit.New(who, now),
	}

	if err := s.save(ctx, tx, inv, plan); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing invoice: %w", err)
	}

	slog.Info("estimate converted",
		"estimate_id", est.ID,
		"invoice_id", inv.ID,
		"number", inv.Number,
		"mode", s.mode,
	)

	return inv, nil
}

// save runs the two numbering phases: reserveNumber then commitDocument.
func (s *Service) save(ctx context.Context, tx Tx, doc *Document, plan linePlan) error {
	if err := s.reserveNumber(ctx, tx, doc); err != nil {
		return err
	}

	return s.commitDocument(ctx, tx, doc, plan)
}

// reserveNumber gives doc the next number of its saler unless it already
// has one, so that saving a numbered document again never consumes a
// number.
func (s *Service) reserveNumber(ctx context.Context, tx Tx, doc *Document) error {
	if doc.Numbered() {
		return nil
	}

	n, err := tx.NextNumber(ctx, doc.SalerID, doc.Kind)
	if err != nil {
		return fmt.Errorf("reserving %s number: %w", doc.Kind, err)
	}

	doc.Number = n

	return nil
}

func (s *Service) commitDocument(ctx context.Context, tx Tx, doc *Document, plan linePlan) error {
	if doc.ID == uuid.Nil {
		if err := tx.InsertDocument(ctx, doc); err != nil {
			return err
		}
	} else if err := tx.UpdateDocument(ctx, doc); err != nil {
		return err
	}

	for _, l := range plan.Created {
		if err := tx.InsertLine(ctx, l); err != nil {
			return err
		}
	}

	for _, l := range plan.Changed {
		if err := tx.UpdateLine(ctx, l); err != nil {
			return err
		}
	}

	if len(plan.Removed) > 0 {
		if err := tx.DetachLines(ctx, doc.ID, plan.Removed); err != nil {
			return err
		}

		if err := tx.DeleteOrphanLines(ctx, plan.Removed); err != nil {
			return err
		}
	}

	return tx.AttachLines(ctx, doc.ID, plan.Final)
}

func (s *Service) Get(ctx context.Context, who audit.Identity, kind Kind, id uuid.UUID) (*Document, error) {
	doc, err := s.repo.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if !doc.VisibleTo(who) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}

	return doc, nil
}

func (s *Service) Totals(ctx context.Context, who audit.Identity, kind Kind, id uuid.UUID) (Totals, error) {
	doc, err := s.Get(ctx, who, kind, id)
	if err != nil {
		return Totals{}, err
	}

	return doc.Totals(), nil
}

func (s *Service) List(ctx context.Context, who audit.Identity, kind Kind, filter ListFilter) ([]*Document, error) {
	filter.IncludeInactive = filter.IncludeInactive && who.Superuser
	return s.repo.ListDocuments(ctx, kind, filter)
}

// SetPaid marks an invoice paid or unpaid.
func (s *Service) SetPaid(ctx context.Context, who audit.Identity, id uuid.UUID, paid bool) (*Document, error) {
	doc, err := s.Get(ctx, who, KindInvoice, id)
	if err != nil {
		return nil, err
	}

	doc.IsPaid = paid
	doc.Touch(who, s.now())

	if err := s.repo.SetPaid(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Deactivate soft-deletes a document. Its number stays consumed.
func (s *Service) Deactivate(ctx context.Context, who audit.Identity, kind Kind, id uuid.UUID) error {
	doc, err := s.Get(ctx, who, kind, id)
	if err != nil {
		return err
	}

	doc.Deactivate(who, s.now())

	return s.repo.SetDocumentActive(ctx, doc)
}

func (s *Service) Restore(ctx context.Context, who audit.Identity, kind Kind, id uuid.UUID) (*Document, error) {
	if !who.Superuser {
		return nil, apperr.ErrForbidden
	}

	doc, err := s.repo.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	doc.Restore(who, s.now())

	if err := s.repo.SetDocumentActive(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func normalize(kind Kind, p Params) Params {
	if !p.Date.IsZero() {
		p.Date = dateOf(p.Date)
	}

	switch kind {
	case KindEstimate:
		p.IsPaid = false

		if p.ValidityDate != nil {
			p.ValidityDate = new(dateOf(*p.ValidityDate))
		}
	case KindInvoice:
		p.ValidityDate = nil
	}

	return p
}

func validate(kind Kind, p Params) error {
	if kind != KindEstimate && kind != KindInvoice {
		return apperr.Invalidf("kind", "unknown document kind %q", kind)
	}

	if p.SalerID == uuid.Nil {
		return apperr.Invalid("saler_id", "required")
	}

	if p.CustomerID == uuid.Nil {
		return apperr.Invalid("customer_id", "required")
	}

	if p.Date.IsZero() {
		return apperr.Invalid("date", "required")
	}

	if kind == KindEstimate {
		if p.ValidityDate == nil {
			return apperr.Invalid("validity_date", "required")
		}

		if p.ValidityDate.Before(p.Date) {
			return apperr.Invalid("validity_date", "must not be before the document date")
		}
	}

	return validateLines(p.Lines)
}

// loadParty fetches a saler or customer. Inactive parties are refused
// unless the document already references them.
func loadParty(ctx context.Context, tx Tx, who audit.Identity, kind actor.Kind, id, current uuid.UUID) (*actor.Actor, error) {
	a, err := tx.GetActor(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if !a.VisibleTo(who) && id != current {
		return nil, fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}

	return a, nil
}

// loadItems fetches the submitted items. A deactivated item may only stay
// on a line that already uses it.
func loadItems(ctx context.Context, tx Tx, inputs []LineInput, current []*OrderLine) (map[uuid.UUID]*catalog.Item, error) {
	if len(inputs) == 0 {
		return map[uuid.UUID]*catalog.Item{}, nil
	}

	items, err := tx.GetItems(ctx, itemIDs(inputs))
	if err != nil {
		return nil, err
	}

	currentItem := make(map[uuid.UUID]uuid.UUID, len(current))
	for _, l := range current {
		currentItem[l.ID] = l.ItemID
	}

	for _, in := range inputs {
		item, ok := items[in.ItemID]
		if !ok {
			return nil, fmt.Errorf("item %s: %w", in.ItemID, apperr.ErrNotFound)
		}

		if item.Active {
			continue
		}

		if in.LineID == nil || currentItem[*in.LineID] != in.ItemID {
			return nil, apperr.Invalidf("item_id", "item %s is no longer sold", in.ItemID)
		}
	}

	return items, nil
}

// dateOf keeps the calendar date of t, at midnight UTC.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
