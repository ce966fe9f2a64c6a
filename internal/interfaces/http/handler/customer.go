package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *billingapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *billingapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// CreateCustomerRequest represents a request to create a new customer
// @Description Request body for creating a new customer
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200" example:"Gupta Stores"`
	Phone   string `json:"phone" binding:"omitempty,max=20" example:"+919876543210"`
	Address string `json:"address" binding:"omitempty,max=500" example:"12 MG Road, Pune"`
}

// CustomerListQuery represents the query parameters of the customer list
type CustomerListQuery struct {
	Search   string `form:"search" binding:"omitempty,max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a new customer
// @Description  Create a customer of the current vendor
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body CreateCustomerRequest true "Customer creation request"
// @Success      201 {object} APIResponse[billingapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var req CreateCustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), vendorID, billingapp.CreateCustomerRequest{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, customer)
}

// GetByID godoc
// @ID           getCustomerById
// @Summary      Get customer by ID
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	customerID, ok := h.parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), vendorID, customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customer)
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Description  List the current vendor's customers, optionally filtered by name or phone
// @Tags         customers
// @Produce      json
// @Param        search query string false "Name or phone fragment"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]billingapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var query CustomerListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	query.Page, query.PageSize = defaultPaging(query.Page, query.PageSize)

	customers, total, err := h.customerService.List(c.Request.Context(), vendorID, billingapp.CustomerListFilter{
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, customers, total, query.Page, query.PageSize)
}
