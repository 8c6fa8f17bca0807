package entity

import (
	"context"

	"khata/internal/core/apperror"
)

// Catalog is the base type for identity/reference records
// (wholesalers, customers). Referenced by id from obligations and
// purchase line items, never embedded by value once persisted.
type Catalog struct {
	BaseEntity

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Name:       name,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
