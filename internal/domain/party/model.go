// Package party provides the wholesaler and customer identity catalogs and
// the wholesaler identity resolver. Identity records are referenced by id
// from obligations and purchase lines, never embedded by value, so one real
// wholesaler can never drift into several records.
package party

import (
	"context"
	"regexp"
	"strings"

	"khata/internal/core/apperror"
	"khata/internal/core/entity"
)

var (
	spaceRE    = regexp.MustCompile(`\s+`)
	nonDigitRE = regexp.MustCompile(`\D`)
)

// Wholesaler is a supplier identity record.
type Wholesaler struct {
	entity.Catalog

	Phone   string `db:"phone" json:"phone,omitempty"`
	Address string `db:"address" json:"address,omitempty"`

	// UniqueKey is the normalized composite identity, persisted so the
	// store can enforce insert-if-absent with a unique index.
	UniqueKey string `db:"unique_key" json:"-"`
}

// NewWholesaler creates a wholesaler with its unique key precomputed.
func NewWholesaler(name, phone, address string) *Wholesaler {
	return &Wholesaler{
		Catalog:   entity.NewCatalog(name),
		Phone:     phone,
		Address:   address,
		UniqueKey: UniqueKey(name, phone, address),
	}
}

// Validate implements entity.Validatable.
func (w *Wholesaler) Validate(ctx context.Context) error {
	if err := w.Catalog.Validate(ctx); err != nil {
		return err
	}
	if w.UniqueKey == "" {
		return apperror.NewValidation("unique key is required").
			WithDetail("field", "uniqueKey")
	}
	return nil
}

// Customer is a buyer identity record. Customers are looked up by id and
// not deduplicated; two customers may legitimately share a name.
type Customer struct {
	entity.Catalog

	Phone   string `db:"phone" json:"phone,omitempty"`
	Address string `db:"address" json:"address,omitempty"`
}

// NewCustomer creates a customer record.
func NewCustomer(name, phone, address string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(name),
		Phone:   phone,
		Address: address,
	}
}

// UniqueKey computes the normalized composite identity of a wholesaler:
// case-insensitive trimmed name, digits-only phone, case-insensitive
// trimmed address. Absent phone/address normalize to the empty string.
// Derived at resolution time, never user-facing.
func UniqueKey(name, phone, address string) string {
	return normalizeText(name) + "|" + normalizePhone(phone) + "|" + normalizeText(address)
}

func normalizeText(s string) string {
	return strings.ToLower(spaceRE.ReplaceAllString(strings.TrimSpace(s), " "))
}

func normalizePhone(s string) string {
	return nonDigitRE.ReplaceAllString(s, "")
}
