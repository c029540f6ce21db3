package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/export"
)

// Transcript formats.
const (
	TranscriptFormatCSV = "csv"
	TranscriptFormatPDF = "pdf"
)

var transcriptHeaders = []string{"Disciplina", "Carga horária", "Unidade", "Conceito", "Resultado"}

type courseAggregator interface {
	AggregateCourses(ctx context.Context, session models.Session) (*models.CourseAggregate, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, doc export.Document) ([]byte, error)
}

// TranscriptRequest selects the transcript output format.
type TranscriptRequest struct {
	Format string `validate:"required,oneof=csv pdf"`
}

// TranscriptFile is a rendered transcript ready to be sent as an attachment.
type TranscriptFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TranscriptService renders the aggregated course list as a downloadable report card.
type TranscriptService struct {
	courses   courseAggregator
	profiles  profileDirectory
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTranscriptService constructs a TranscriptService. profiles may be nil.
func NewTranscriptService(courses courseAggregator, profiles profileDirectory, csv csvRenderer, pdf pdfRenderer, validate *validator.Validate, logger *zap.Logger) *TranscriptService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{courses: courses, profiles: profiles, csv: csv, pdf: pdf, validator: validate, logger: logger, now: time.Now}
}

// Render aggregates the session's courses and renders them in the requested format.
// Aggregation failures are returned unchanged.
func (s *TranscriptService) Render(ctx context.Context, session models.Session, req TranscriptRequest) (*TranscriptFile, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format == "" {
		req.Format = TranscriptFormatCSV
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}

	aggregate, err := s.courses.AggregateCourses(ctx, session)
	if err != nil {
		return nil, err
	}
	dataset := buildTranscriptDataset(aggregate)
	stamp := s.now().UTC().Format("20060102")

	switch req.Format {
	case TranscriptFormatPDF:
		body, err := s.pdf.Render(dataset, s.document(ctx, session, aggregate))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &TranscriptFile{Filename: fmt.Sprintf("boletim-%s.pdf", stamp), ContentType: "application/pdf", Body: body}, nil
	default:
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &TranscriptFile{Filename: fmt.Sprintf("boletim-%s.csv", stamp), ContentType: "text/csv; charset=utf-8", Body: body}, nil
	}
}

func (s *TranscriptService) document(ctx context.Context, session models.Session, aggregate *models.CourseAggregate) export.Document {
	doc := export.Document{
		Title:    "Boletim Escolar",
		Subtitle: []string{"Turma: " + aggregate.ClassName},
	}
	if s.profiles == nil {
		return doc
	}
	profile, err := s.profiles.FetchUserProfile(ctx, session.UserID, session.Token)
	if err != nil || profile == nil {
		s.logger.Debug("transcript rendered without student name", zap.Error(err))
		return doc
	}
	doc.Subtitle = append([]string{"Aluno(a): " + profile.Name}, doc.Subtitle...)
	return doc
}

// buildTranscriptDataset produces one row per concept, or a placeholder row for courses without concepts.
func buildTranscriptDataset(aggregate *models.CourseAggregate) export.Dataset {
	dataset := export.Dataset{Headers: transcriptHeaders, Widths: []float64{4, 2, 2, 1.5, 2}}
	for _, course := range aggregate.Courses {
		name := string(course.CourseID)
		workload := "-"
		if course.Detail != nil {
			name = course.Detail.CourseName
			workload = strconv.Itoa(course.Detail.WorkloadHours) + "h"
		}
		if len(course.Display) == 0 {
			dataset.Rows = append(dataset.Rows, []string{name, workload, "-", "-", "-"})
			continue
		}
		for _, concept := range course.Display {
			dataset.Rows = append(dataset.Rows, []string{name, workload, concept.Unit, concept.Concept, concept.Result})
		}
	}
	return dataset
}
