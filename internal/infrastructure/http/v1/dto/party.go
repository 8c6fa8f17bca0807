package dto

import (
	"khata/internal/domain/party"
)

// --- Request DTOs ---

// ResolveWholesalerRequest carries the raw identity of a wholesaler as the
// operator typed it. The resolver normalizes and deduplicates.
type ResolveWholesalerRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CreateCustomerRequest is the request body for creating a customer.
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// --- Response DTOs ---

// WholesalerResponse is the canonical wholesaler record.
type WholesalerResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// FromWholesaler creates response DTO from domain entity.
func FromWholesaler(w *party.Wholesaler) *WholesalerResponse {
	return &WholesalerResponse{
		ID:      w.ID.String(),
		Version: w.Version,
		Name:    w.Name,
		Phone:   w.Phone,
		Address: w.Address,
	}
}

// CustomerResponse is a customer record.
type CustomerResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// FromCustomer creates response DTO from domain entity.
func FromCustomer(c *party.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:      c.ID.String(),
		Version: c.Version,
		Name:    c.Name,
		Phone:   c.Phone,
		Address: c.Address,
	}
}
