package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/service"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
	"github.com/noah-isme/studio-booking-api/pkg/response"
)

// GenerationHandler exposes occurrence generation and conflict preview.
type GenerationHandler struct {
	generator *service.GenerationService
	preview   *service.PreviewService
}

// NewGenerationHandler constructs a generation handler.
func NewGenerationHandler(generator *service.GenerationService, preview *service.PreviewService) *GenerationHandler {
	return &GenerationHandler{generator: generator, preview: preview}
}

// Generate godoc
// @Summary Generate occurrences
// @Description Run one generation pass for the series, materializing due occurrences up to the lead window
// @Tags Generation
// @Accept json
// @Produce json
// @Param id path string true "Series ID"
// @Param payload body dto.GenerateRequest false "Generation options"
// @Success 200 {object} response.Envelope
// @Router /series/{id}/generate [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	result, err := h.generator.Generate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Preview conflicts
// @Description Report the conflicts a generation run would record, without writing anything
// @Tags Generation
// @Produce json
// @Param id path string true "Series ID"
// @Param horizonDays query int false "Preview horizon in days"
// @Success 200 {object} response.Envelope
// @Router /series/{id}/preview [get]
func (h *GenerationHandler) Preview(c *gin.Context) {
	horizon := 0
	if raw := c.Query("horizonDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "horizonDays must be a positive integer"))
			return
		}
		horizon = parsed
	}
	result, err := h.preview.Preview(c.Request.Context(), c.Param("id"), horizon)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
