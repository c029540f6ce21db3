package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// QueryObserver receives timing for every directory query.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// AcademicSQLRepository reads the academic directory straight from its Postgres schema.
// The bearer token is not checked here: callers must be authenticated by a verifying session middleware.
type AcademicSQLRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewAcademicSQLRepository creates a new instance of AcademicSQLRepository.
func NewAcademicSQLRepository(db *sqlx.DB, observer QueryObserver) *AcademicSQLRepository {
	return &AcademicSQLRepository{db: db, observer: observer}
}

// FetchClassMemberships returns the classes a user belongs to.
func (r *AcademicSQLRepository) FetchClassMemberships(ctx context.Context, userID models.UserID, _ string) ([]models.ClassMembership, error) {
	const query = `SELECT c.id AS class_id, c.class_name FROM user_classes uc JOIN classes c ON c.id = uc.class_id WHERE uc.user_id = $1 ORDER BY uc.created_at ASC, c.id ASC`
	var memberships []models.ClassMembership
	if err := r.selectContext(ctx, ResourceClassMembership, &memberships, query, userID); err != nil {
		return nil, fmt.Errorf("list class memberships: %w", err)
	}
	return memberships, nil
}

// FetchCourseEnrollments returns the course enrollments of a class.
func (r *AcademicSQLRepository) FetchCourseEnrollments(ctx context.Context, classID models.ClassID, _ string) ([]models.CourseEnrollment, error) {
	const query = `SELECT course_id, id AS enrollment_key FROM class_courses WHERE class_id = $1 ORDER BY created_at ASC, id ASC`
	var enrollments []models.CourseEnrollment
	if err := r.selectContext(ctx, ResourceEnrollments, &enrollments, query, classID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// FetchCourseDetail returns the static detail of a course.
func (r *AcademicSQLRepository) FetchCourseDetail(ctx context.Context, courseID models.CourseID, _ string) (*models.CourseDetail, error) {
	const query = `SELECT course_name, description, workload AS workload_hours FROM courses WHERE id = $1 LIMIT 1`
	var detail models.CourseDetail
	start := time.Now()
	err := r.db.GetContext(ctx, &detail, query, courseID)
	r.observe(ResourceCourseDetail, start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &UpstreamError{Resource: ResourceCourseDetail, Status: http.StatusNotFound}
		}
		return nil, fmt.Errorf("find course detail: %w", err)
	}
	return &detail, nil
}

// FetchConceptRecords returns every concept record of a user.
func (r *AcademicSQLRepository) FetchConceptRecords(ctx context.Context, userID models.UserID, _ string) ([]models.ConceptRecord, error) {
	const query = `SELECT id, concept, unit AS unit_code, result AS result_code, class_course_id AS enrollment_key FROM concepts WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	var records []models.ConceptRecord
	if err := r.selectContext(ctx, ResourceConcepts, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list concept records: %w", err)
	}
	return records, nil
}

// FetchNotifications returns the published notifications, newest first.
func (r *AcademicSQLRepository) FetchNotifications(ctx context.Context, _ string) ([]models.Notification, error) {
	const query = `SELECT id, title, content, announcement_type AS category, created_at FROM announcements ORDER BY created_at DESC, id ASC`
	var notifications []models.Notification
	if err := r.selectContext(ctx, ResourceNotifications, &notifications, query); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	for i := range notifications {
		notifications[i].Category = NormalizeCategory(string(notifications[i].Category))
	}
	return notifications, nil
}

// FetchUserProfile returns the directory profile of a user.
func (r *AcademicSQLRepository) FetchUserProfile(ctx context.Context, userID models.UserID, _ string) (*models.UserProfile, error) {
	const query = `SELECT u.id AS user_id, u.user_name, u.email, COALESCE(c.class_name, '') AS class_name, COALESCE(u.avatar_url, '') AS avatar_url
FROM users u
LEFT JOIN user_classes uc ON uc.user_id = u.id
LEFT JOIN classes c ON c.id = uc.class_id
WHERE u.id = $1
ORDER BY uc.created_at ASC
LIMIT 1`
	var profile models.UserProfile
	start := time.Now()
	err := r.db.GetContext(ctx, &profile, query, userID)
	r.observe(ResourceUserProfile, start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &UpstreamError{Resource: ResourceUserProfile, Status: http.StatusNotFound}
		}
		return nil, fmt.Errorf("find user profile: %w", err)
	}
	return &profile, nil
}

func (r *AcademicSQLRepository) selectContext(ctx context.Context, label string, dest interface{}, query string, args ...interface{}) error {
	start := time.Now()
	err := r.db.SelectContext(ctx, dest, query, args...)
	r.observe(label, start)
	return err
}

func (r *AcademicSQLRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// IsNotFound reports whether err is a directory answer for a missing record.
func IsNotFound(err error) bool {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status == http.StatusNotFound
	}
	return errors.Is(err, sql.ErrNoRows)
}
