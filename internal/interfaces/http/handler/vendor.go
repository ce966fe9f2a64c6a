package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
	"github.com/vendorbill/backend/internal/infrastructure/auth"
)

// VendorHandler handles vendor registration and lookup
type VendorHandler struct {
	BaseHandler
	vendorService *billingapp.VendorService
	jwtService    *auth.JWTService
}

// NewVendorHandler creates a new VendorHandler. jwtService may be nil when
// bearer tokens are disabled.
func NewVendorHandler(vendorService *billingapp.VendorService, jwtService *auth.JWTService) *VendorHandler {
	return &VendorHandler{
		vendorService: vendorService,
		jwtService:    jwtService,
	}
}

// CreateVendorRequest represents a request to register a vendor
// @Description Request body for registering a vendor
type CreateVendorRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200" example:"Sharma Traders"`
	Phone string `json:"phone" binding:"omitempty,max=20" example:"+919812345678"`
}

// VendorRegistrationResponse is the registered vendor with its access token
// @Description Registered vendor and bearer token
type VendorRegistrationResponse struct {
	Vendor *billingapp.VendorResponse `json:"vendor"`
	Token  *auth.Token                `json:"token,omitempty"`
}

// Create godoc
// @ID           createVendor
// @Summary      Register a vendor
// @Description  Create a vendor and, when bearer auth is enabled, issue its access token
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        request body CreateVendorRequest true "Vendor registration request"
// @Success      201 {object} APIResponse[VendorRegistrationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /vendors [post]
func (h *VendorHandler) Create(c *gin.Context) {
	var req CreateVendorRequest
	if !h.bindJSON(c, &req) {
		return
	}

	vendor, err := h.vendorService.Create(c.Request.Context(), billingapp.CreateVendorRequest{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := VendorRegistrationResponse{Vendor: vendor}
	if h.jwtService != nil {
		token, err := h.jwtService.GenerateToken(vendor.ID)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		resp.Token = token
	}

	h.Created(c, resp)
}

// Me godoc
// @ID           getCurrentVendor
// @Summary      Get the current vendor
// @Description  Return the vendor the request is scoped to
// @Tags         vendors
// @Produce      json
// @Success      200 {object} APIResponse[billingapp.VendorResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/me [get]
func (h *VendorHandler) Me(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	vendor, err := h.vendorService.GetByID(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}
