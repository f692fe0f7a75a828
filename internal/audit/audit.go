// Package audit carries the who/when bookkeeping stored on every record and
// the soft-delete flag that goes with it.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the user performing an operation. It is passed explicitly to
// every mutating service call.
type Identity struct {
	UserID    uuid.UUID
	Superuser bool
}

// System is used by operator tooling (migrations, createsuperuser) where no
// logged-in user exists.
var System = Identity{Superuser: true}

// Record is embedded by every persisted entity.
type Record struct {
	Active     bool
	CreatedAt  time.Time
	CreatedBy  *uuid.UUID
	ModifiedAt *time.Time
	ModifiedBy *uuid.UUID
	DeletedAt  *time.Time
	DeletedBy  *uuid.UUID
}

// Columns lists the audit columns in the order expected by ScanTargets.
const Columns = "is_active, created_at, created_by, modified_at, modified_by, deleted_at, deleted_by"

// New returns the record of a freshly created entity.
func New(who Identity, now time.Time) Record {
	return Record{
		Active:    true,
		CreatedAt: now,
		CreatedBy: userRef(who),
	}
}

// Touch stamps a modification.
func (r *Record) Touch(who Identity, now time.Time) {
	r.ModifiedAt = &now
	r.ModifiedBy = userRef(who)
}

// Deactivate soft-deletes the record.
func (r *Record) Deactivate(who Identity, now time.Time) {
	r.Active = false
	r.DeletedAt = &now
	r.DeletedBy = userRef(who)
}

// Restore undoes Deactivate and counts as a modification.
func (r *Record) Restore(who Identity, now time.Time) {
	r.Active = true
	r.DeletedAt = nil
	r.DeletedBy = nil
	r.Touch(who, now)
}

// VisibleTo reports whether the record may be shown to who. Inactive records
// are only visible to superusers.
func (r Record) VisibleTo(who Identity) bool {
	return r.Active || who.Superuser
}

// ScanTargets returns pointers for the columns listed in Columns.
func (r *Record) ScanTargets() []any {
	return []any{&r.Active, &r.CreatedAt, &r.CreatedBy, &r.ModifiedAt, &r.ModifiedBy, &r.DeletedAt, &r.DeletedBy}
}

func userRef(who Identity) *uuid.UUID {
	if who.UserID == uuid.Nil {
		return nil
	}

	id := who.UserID

	return &id
}
