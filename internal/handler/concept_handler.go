package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

type conceptTranslator interface {
	Translate(record models.ConceptRecord) models.DisplayConcept
}

// ConceptHandler exposes the label translation table.
type ConceptHandler struct {
	translator conceptTranslator
}

// NewConceptHandler builds a new handler.
func NewConceptHandler(translator conceptTranslator) *ConceptHandler {
	return &ConceptHandler{translator: translator}
}

// Translate godoc
// @Summary Translate a concept record to display labels
// @Tags Concepts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TranslateConceptRequest true "Concept record"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /concepts/translate [post]
func (h *ConceptHandler) Translate(c *gin.Context) {
	var req dto.TranslateConceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unit_code or result_code is required"))
		return
	}
	display := h.translator.Translate(models.ConceptRecord{
		ID:            models.ConceptRecordID(req.ID),
		Concept:       req.Concept,
		UnitCode:      strings.TrimSpace(req.UnitCode),
		ResultCode:    strings.TrimSpace(req.ResultCode),
		EnrollmentKey: models.EnrollmentKey(req.EnrollmentKey),
	})
	response.JSON(c, http.StatusOK, display, nil)
}
