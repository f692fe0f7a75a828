// Package actor manages the parties of a sales document: salers, who issue
// estimates and invoices and own their numbering counters, and customers.
package actor

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/audit"
)

type Kind string

const (
	KindSaler    Kind = "saler"
	KindCustomer Kind = "customer"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindSaler, KindCustomer:
		return k, nil
	}

	return "", fmt.Errorf("unknown actor kind: %q", s)
}

// Actor is a saler or a customer. EstimateNumber and InvoiceNumber are the
// last numbers issued by a saler; they only move forward and only the
// document numbering path writes them. They stay zero for customers.
type Actor struct {
	ID         uuid.UUID
	Kind       Kind
	Name       string
	Address    string
	City       string
	PostalCode string
	Country    string
	Email      string
	Phone      string

	EstimateNumber int64
	InvoiceNumber  int64

	audit.Record
}

// Params are the fields a caller may set on an actor.
type Params struct {
	Name       string `json:"name" validate:"required,max=200"`
	Address    string `json:"address" validate:"required,max=254"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=15"`
	Country    string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Email      string `json:"email" validate:"omitempty,max=254,email"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
}

func (a *Actor) apply(p Params) {
	a.Name = p.Name
	a.Address = p.Address
	a.City = p.City
	a.PostalCode = p.PostalCode
	a.Country = p.Country
	a.Email = p.Email
	a.Phone = p.Phone
}

// normalize trims every field and upper-cases the country code.
func normalize(p Params) Params {
	p.Name = strings.TrimSpace(p.Name)
	p.Address = strings.TrimSpace(p.Address)
	p.City = strings.TrimSpace(p.City)
	p.PostalCode = strings.TrimSpace(p.PostalCode)
	p.Country = strings.ToUpper(strings.TrimSpace(p.Country))
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)

	return p
}
