package dto

import (
	"time"

	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/domain/catalogs/product"
)

// --- Products ---

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	Name         string   `json:"name" binding:"required"`
	Category     string   `json:"category"`
	FreeSize     bool     `json:"freeSize"`
	Sizes        []string `json:"sizes"`
	CostPrice    float64  `json:"costPrice" binding:"min=0"`
	SellingPrice float64  `json:"sellingPrice" binding:"min=0"`
	Barcode      *string  `json:"barcode"`
}

// ToProduct converts the request to a domain product.
func (r *CreateProductRequest) ToProduct() *product.Product {
	p := product.New(r.Name, r.Category, r.FreeSize)
	p.Sizes = r.Sizes
	p.CostPrice = types.NewMinorUnitsFromMajor(r.CostPrice)
	p.SellingPrice = types.NewMinorUnitsFromMajor(r.SellingPrice)
	p.Barcode = r.Barcode
	return p
}

// UpdateProductRequest for updating products. Nil fields keep their
// current values; Version is required for optimistic locking.
type UpdateProductRequest struct {
	Name         *string  `json:"name"`
	Category     *string  `json:"category"`
	Sizes        []string `json:"sizes"`
	CostPrice    *float64 `json:"costPrice" binding:"omitempty,min=0"`
	SellingPrice *float64 `json:"sellingPrice" binding:"omitempty,min=0"`
	Barcode      *string  `json:"barcode"`
	Version      int      `json:"version" binding:"required,min=1"`
}

// ApplyTo merges the request into an existing product.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Sizes != nil {
		p.Sizes = r.Sizes
	}
	if r.CostPrice != nil {
		p.CostPrice = types.NewMinorUnitsFromMajor(*r.CostPrice)
	}
	if r.SellingPrice != nil {
		p.SellingPrice = types.NewMinorUnitsFromMajor(*r.SellingPrice)
	}
	if r.Barcode != nil {
		p.Barcode = r.Barcode
	}
	p.Version = r.Version
}

// ProductResponse is the API representation of a product.
type ProductResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category,omitempty"`
	FreeSize     bool      `json:"freeSize"`
	Sizes        []string  `json:"sizes,omitempty"`
	CostPrice    float64   `json:"costPrice"`
	SellingPrice float64   `json:"sellingPrice"`
	Barcode      *string   `json:"barcode,omitempty"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FromProduct converts a domain product.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Category:     p.Category,
		FreeSize:     p.FreeSize,
		Sizes:        p.Sizes,
		CostPrice:    p.CostPrice.ToMajor(),
		SellingPrice: p.SellingPrice.ToMajor(),
		Barcode:      p.Barcode,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ProductListRequest filters product listings.
type ProductListRequest struct {
	PaginationRequest
	Category string `form:"category"`
	Search   string `form:"search"`
}

// --- Customers ---

// CreateCustomerRequest for creating customers.
type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// CustomerResponse is the API representation of a customer with the
// running balance aggregates.
type CustomerResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	TotalDebt    float64   `json:"totalDebt"`
	TotalAdvance float64   `json:"totalAdvance"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FromCustomer converts a domain customer.
func FromCustomer(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		Phone:        c.Phone,
		TotalDebt:    c.TotalDebt.ToMajor(),
		TotalAdvance: c.TotalAdvance.ToMajor(),
		Version:      c.Version,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// CustomerListRequest filters customer listings.
type CustomerListRequest struct {
	PaginationRequest
	Search string `form:"search"`
}
