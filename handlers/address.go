package handlers

import (
	"net/http"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/models"
	"github.com/KunArthit/petterrain-api-sub000/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AddressHandler struct {
	addresses *services.AddressService
	logger    *zap.Logger
}

func NewAddressHandler(addresses *services.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{addresses: addresses, logger: logger}
}

func (h *AddressHandler) CreateAddress(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	var req models.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	addr, err := h.addresses.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, addr)
}

func (h *AddressHandler) ListAddresses(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	addrs, err := h.addresses.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, addrs)
}

// GetDefaultAddress answers 404 when the user has no default address.
func (h *AddressHandler) GetDefaultAddress(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	addr, found, err := h.addresses.Resolve(c.Request.Context(), userID, nil)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !found {
		respondError(c, h.logger, apperr.NotFound("address.default", "user %d has no default address", userID))
		return
	}
	c.JSON(http.StatusOK, addr)
}

func (h *AddressHandler) SetDefaultAddress(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.addresses.SetDefault(c.Request.Context(), userID, addressID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
