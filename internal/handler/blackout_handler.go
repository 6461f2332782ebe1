package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/service"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
	"github.com/noah-isme/studio-booking-api/pkg/response"
)

// BlackoutHandler exposes blackout-period endpoints.
type BlackoutHandler struct {
	service *service.BlackoutService
}

// NewBlackoutHandler constructs a blackout handler.
func NewBlackoutHandler(svc *service.BlackoutService) *BlackoutHandler {
	return &BlackoutHandler{service: svc}
}

// List godoc
// @Summary List blackout periods
// @Tags Blackouts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /blackouts [get]
func (h *BlackoutHandler) List(c *gin.Context) {
	periods, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// Create godoc
// @Summary Create blackout period
// @Tags Blackouts
// @Accept json
// @Produce json
// @Param payload body dto.CreateBlackoutRequest true "Blackout payload"
// @Success 201 {object} response.Envelope
// @Router /blackouts [post]
func (h *BlackoutHandler) Create(c *gin.Context) {
	var req dto.CreateBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Delete godoc
// @Summary Delete blackout period
// @Tags Blackouts
// @Produce json
// @Param id path string true "Blackout ID"
// @Success 204
// @Router /blackouts/{id} [delete]
func (h *BlackoutHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
