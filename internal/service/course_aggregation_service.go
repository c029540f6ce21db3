package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

const tracerName = "github.com/noah-isme/student-portal-api/internal/service"

type academicDirectory interface {
	FetchClassMemberships(ctx context.Context, userID models.UserID, token string) ([]models.ClassMembership, error)
	FetchCourseEnrollments(ctx context.Context, classID models.ClassID, token string) ([]models.CourseEnrollment, error)
	FetchCourseDetail(ctx context.Context, courseID models.CourseID, token string) (*models.CourseDetail, error)
	FetchConceptRecords(ctx context.Context, userID models.UserID, token string) ([]models.ConceptRecord, error)
}

// CourseAggregationConfig tunes the join failure policy.
type CourseAggregationConfig struct {
	// PartialResults keeps enrollments whose detail fetch succeeded and marks the rest unavailable.
	PartialResults bool
}

// CourseAggregationServiceParams groups constructor dependencies.
type CourseAggregationServiceParams struct {
	Directory  academicDirectory
	Translator *ConceptTranslator
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     CourseAggregationConfig
}

// CourseAggregationService builds the per-course view of a student's academic record.
type CourseAggregationService struct {
	directory  academicDirectory
	translator *ConceptTranslator
	metrics    *MetricsService
	tracer     trace.Tracer
	logger     *zap.Logger
	cfg        CourseAggregationConfig
}

// NewCourseAggregationService constructs the aggregation service.
func NewCourseAggregationService(params CourseAggregationServiceParams) *CourseAggregationService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	translator := params.Translator
	if translator == nil {
		translator = NewConceptTranslator(nil, nil)
	}
	return &CourseAggregationService{
		directory:  params.Directory,
		translator: translator,
		metrics:    params.Metrics,
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
		cfg:        params.Config,
	}
}

// AggregateCourses fetches membership, enrollments, course details and concepts and joins them
// into one view per enrollment, in enrollment order.
func (s *CourseAggregationService) AggregateCourses(ctx context.Context, session models.Session) (*models.CourseAggregate, error) {
	if !session.Valid() {
		return nil, appErrors.ErrUnauthenticated
	}

	ctx, span := s.tracer.Start(ctx, "courses.aggregate", trace.WithAttributes(attribute.String("user.id", string(session.UserID))))
	defer span.End()

	membership, err := s.membership(ctx, session)
	if err != nil {
		s.fail(span, err)
		return nil, err
	}

	enrollments, err := s.enrollments(ctx, session, membership.ClassID)
	if err != nil {
		s.fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("enrollments", len(enrollments)))

	views, partial, err := s.join(ctx, session, enrollments)
	if err != nil {
		s.fail(span, err)
		return nil, err
	}

	outcome := AggregationOutcomeOK
	if partial {
		outcome = AggregationOutcomePartial
	}
	s.metrics.RecordAggregation(outcome)

	return &models.CourseAggregate{
		ClassID:   membership.ClassID,
		ClassName: membership.ClassName,
		Courses:   views,
		Partial:   partial,
	}, nil
}

// CourseConcepts returns the translated concepts of a single enrollment.
func (s *CourseAggregationService) CourseConcepts(ctx context.Context, session models.Session, key models.EnrollmentKey) ([]models.DisplayConcept, error) {
	if !session.Valid() {
		return nil, appErrors.ErrUnauthenticated
	}
	key = models.EnrollmentKey(strings.TrimSpace(string(key)))
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment key is required")
	}

	ctx, span := s.tracer.Start(ctx, "courses.concepts", trace.WithAttributes(attribute.String("enrollment.key", string(key))))
	defer span.End()

	records, err := s.directory.FetchConceptRecords(ctx, session.UserID, session.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "concept fetch failed")
		s.logger.Warn("concept fetch failed", zap.String("user_id", string(session.UserID)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrFetch.Code, appErrors.ErrFetch.Status, "failed to load concepts")
	}

	return s.translator.TranslateAll(conceptsByEnrollment(records)[key]), nil
}

func (s *CourseAggregationService) membership(ctx context.Context, session models.Session) (*models.ClassMembership, error) {
	ctx, span := s.tracer.Start(ctx, "courses.membership")
	defer span.End()

	memberships, err := s.directory.FetchClassMemberships(ctx, session.UserID, session.Token)
	if err != nil && !repository.IsNotFound(err) {
		s.logger.Warn("class membership fetch failed", zap.String("user_id", string(session.UserID)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPartialFetchFailure.Code, appErrors.ErrPartialFetchFailure.Status, "failed to load class membership")
	}
	if len(memberships) == 0 {
		s.metrics.RecordAggregation(AggregationOutcomeNoMembership)
		return nil, appErrors.ErrNoClassMembership
	}
	// The first membership returned is authoritative.
	return &memberships[0], nil
}

func (s *CourseAggregationService) enrollments(ctx context.Context, session models.Session, classID models.ClassID) ([]models.CourseEnrollment, error) {
	ctx, span := s.tracer.Start(ctx, "courses.enrollments", trace.WithAttributes(attribute.String("class.id", string(classID))))
	defer span.End()

	enrollments, err := s.directory.FetchCourseEnrollments(ctx, classID, session.Token)
	if err != nil {
		s.logger.Warn("course enrollment fetch failed", zap.String("class_id", string(classID)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPartialFetchFailure.Code, appErrors.ErrPartialFetchFailure.Status, "failed to load course enrollments")
	}
	return enrollments, nil
}

// join runs the detail fan-out and the concept fetch concurrently and assembles the views.
// Once started, every request runs to completion: the fan-out is detached from caller cancellation.
func (s *CourseAggregationService) join(ctx context.Context, session models.Session, enrollments []models.CourseEnrollment) ([]models.AggregatedCourseView, bool, error) {
	ctx, span := s.tracer.Start(ctx, "courses.join")
	defer span.End()
	fanout := context.WithoutCancel(ctx)

	details := make([]*models.CourseDetail, len(enrollments))
	detailErrs := make([]error, len(enrollments))
	var records []models.ConceptRecord
	var conceptErr error

	var g errgroup.Group
	for i, enrollment := range enrollments {
		i, courseID := i, enrollment.CourseID
		g.Go(func() error {
			details[i], detailErrs[i] = s.directory.FetchCourseDetail(fanout, courseID, session.Token)
			return nil
		})
	}
	g.Go(func() error {
		records, conceptErr = s.directory.FetchConceptRecords(fanout, session.UserID, session.Token)
		return nil
	})
	_ = g.Wait()

	if conceptErr != nil {
		s.logger.Warn("concept fetch failed", zap.String("user_id", string(session.UserID)), zap.Error(conceptErr))
		return nil, false, appErrors.Wrap(conceptErr, appErrors.ErrPartialFetchFailure.Code, appErrors.ErrPartialFetchFailure.Status, "failed to load concepts")
	}

	failed := 0
	for i, err := range detailErrs {
		if err == nil && details[i] == nil {
			err = errors.New("empty course detail")
			detailErrs[i] = err
		}
		if err != nil {
			failed++
			s.logger.Warn("course detail fetch failed",
				zap.String("course_id", string(enrollments[i].CourseID)),
				zap.String("enrollment_key", string(enrollments[i].EnrollmentKey)),
				zap.Error(err),
			)
		}
	}
	if failed > 0 && !s.cfg.PartialResults {
		return nil, false, appErrors.Wrap(errors.Join(detailErrs...), appErrors.ErrPartialFetchFailure.Code, appErrors.ErrPartialFetchFailure.Status, appErrors.ErrPartialFetchFailure.Message)
	}

	grouped := conceptsByEnrollment(records)
	views := make([]models.AggregatedCourseView, len(enrollments))
	for i, enrollment := range enrollments {
		concepts := grouped[enrollment.EnrollmentKey]
		if concepts == nil {
			concepts = []models.ConceptRecord{}
		}
		views[i] = models.AggregatedCourseView{
			EnrollmentKey:   enrollment.EnrollmentKey,
			CourseID:        enrollment.CourseID,
			Detail:          details[i],
			DetailAvailable: detailErrs[i] == nil,
			Concepts:        concepts,
			Display:         s.translator.TranslateAll(concepts),
		}
	}
	span.SetAttributes(attribute.Int("details.failed", failed))
	return views, failed > 0, nil
}

func (s *CourseAggregationService) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if !appErrors.Is(err, appErrors.ErrNoClassMembership) {
		s.metrics.RecordAggregation(AggregationOutcomeFailed)
	}
}

// conceptsByEnrollment groups records by enrollment key keeping source order within each group.
func conceptsByEnrollment(records []models.ConceptRecord) map[models.EnrollmentKey][]models.ConceptRecord {
	grouped := make(map[models.EnrollmentKey][]models.ConceptRecord)
	for _, record := range records {
		grouped[record.EnrollmentKey] = append(grouped[record.EnrollmentKey], record)
	}
	return grouped
}
