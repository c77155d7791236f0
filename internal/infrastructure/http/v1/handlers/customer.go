package handlers

import (
	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// CustomerHandler handles customer catalog endpoints.
type CustomerHandler struct {
	*BaseHandler
	service *customer.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	return &CustomerHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /catalog/customers
func (h *CustomerHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust := customer.New(req.Name, req.Phone)
	if err := h.service.Create(ctx, cust); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, cust.ID.String())
}

// Get handles GET /catalog/customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	customerID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid customer id"))
		return
	}

	cust, err := h.service.GetByID(ctx, customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCustomer(cust))
}

// List handles GET /catalog/customers
func (h *CustomerHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CustomerListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	customers, err := h.service.List(ctx, customer.ListFilter{
		Search: req.Search,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.CustomerResponse, 0, len(customers))
	for _, cust := range customers {
		items = append(items, dto.FromCustomer(cust))
	}

	h.OK(c, dto.ListResponse{
		Items:  items,
		Count:  len(items),
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}
