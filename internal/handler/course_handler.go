package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

type courseService interface {
	AggregateCourses(ctx context.Context, session models.Session) (*models.CourseAggregate, error)
	CourseConcepts(ctx context.Context, session models.Session, key models.EnrollmentKey) ([]models.DisplayConcept, error)
}

type transcriptService interface {
	Render(ctx context.Context, session models.Session, req service.TranscriptRequest) (*service.TranscriptFile, error)
}

// CourseHandler exposes the signed-in student's courses and concepts.
type CourseHandler struct {
	courses     courseService
	transcripts transcriptService
}

// NewCourseHandler builds a new handler.
func NewCourseHandler(courses courseService, transcripts transcriptService) *CourseHandler {
	return &CourseHandler{courses: courses, transcripts: transcripts}
}

// List godoc
// @Summary List my courses with concepts
// @Description Joins class membership, course enrollments, course details and concept records into one view per enrollment.
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /me/courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	aggregate, err := h.courses.AggregateCourses(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, aggregate, map[string]interface{}{
		"total":   len(aggregate.Courses),
		"partial": aggregate.Partial,
	})
}

// Concepts godoc
// @Summary List the concepts of one enrollment
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param enrollmentKey path string true "Enrollment key"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /me/courses/{enrollmentKey}/concepts [get]
func (h *CourseHandler) Concepts(c *gin.Context) {
	key := models.EnrollmentKey(c.Param("enrollmentKey"))
	concepts, err := h.courses.CourseConcepts(c.Request.Context(), sessionFromContext(c), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, concepts, nil)
}

// Transcript godoc
// @Summary Download my report card
// @Tags Courses
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /me/transcript [get]
func (h *CourseHandler) Transcript(c *gin.Context) {
	var query dto.TranscriptQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	file, err := h.transcripts.Render(c.Request.Context(), sessionFromContext(c), service.TranscriptRequest{Format: query.Format})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
