package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// Upstream resource names used for errors and metrics.
const (
	ResourceClassMembership = "class_membership"
	ResourceEnrollments     = "course_enrollments"
	ResourceCourseDetail    = "course_detail"
	ResourceConcepts        = "concept_records"
	ResourceNotifications   = "notifications"
	ResourceUserProfile     = "user_profile"
)

const maxErrorBody = 512

// UpstreamObserver receives timing for every directory call.
type UpstreamObserver interface {
	ObserveUpstream(resource string, status int, duration time.Duration)
}

// UpstreamError reports a non-2xx answer from the academic directory.
type UpstreamError struct {
	Resource string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream status %d", e.Resource, e.Status)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Resource, e.Status, e.Body)
}

type membershipPayload struct {
	ClassID   string `json:"classId"`
	ClassName string `json:"className"`
}

type enrollmentPayload struct {
	CourseID      string `json:"courseId"`
	EnrollmentKey string `json:"user_class_courseId"`
}

type courseDetailPayload struct {
	CourseName  string  `json:"courseName"`
	Description string  `json:"description"`
	Workload    float64 `json:"workload"`
}

type conceptPayload struct {
	ID            string `json:"conceitoId"`
	Concept       string `json:"conceito"`
	Unit          string `json:"unidade"`
	Result        string `json:"result"`
	EnrollmentKey string `json:"user_class_courseId"`
}

type notificationPayload struct {
	ID        string    `json:"announcementId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string `json:"announcementType"`
	CreatedAt string `json:"createdAt"`
}

type userPayload struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Email     string `json:"email"`
	ClassName string `json:"className"`
	AvatarURL string `json:"avatarUrl"`
}

// AcademicHTTPRepository reads academic records from the remote directory REST API.
type AcademicHTTPRepository struct {
	baseURL  string
	client   *http.Client
	observer UpstreamObserver
}

// NewAcademicHTTPRepository constructs the HTTP directory client. A nil client gets one with the given timeout.
func NewAcademicHTTPRepository(baseURL string, client *http.Client, timeout time.Duration, observer UpstreamObserver) *AcademicHTTPRepository {
	if client == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &AcademicHTTPRepository{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		observer: observer,
	}
}

// FetchClassMemberships returns the classes a user belongs to.
func (r *AcademicHTTPRepository) FetchClassMemberships(ctx context.Context, userID models.UserID, token string) ([]models.ClassMembership, error) {
	var payload []membershipPayload
	if err := r.get(ctx, ResourceClassMembership, "/mediotec/relacionamento/user/"+url.PathEscape(string(userID)), token, &payload); err != nil {
		return nil, err
	}
	memberships := make([]models.ClassMembership, 0, len(payload))
	for _, p := range payload {
		memberships = append(memberships, models.ClassMembership{ClassID: models.ClassID(p.ClassID), ClassName: p.ClassName})
	}
	return memberships, nil
}

// FetchCourseEnrollments returns the course enrollments of a class.
func (r *AcademicHTTPRepository) FetchCourseEnrollments(ctx context.Context, classID models.ClassID, token string) ([]models.CourseEnrollment, error) {
	var payload []enrollmentPayload
	if err := r.get(ctx, ResourceEnrollments, "/mediotec/turmas/classCourse/"+url.PathEscape(string(classID)), token, &payload); err != nil {
		return nil, err
	}
	enrollments := make([]models.CourseEnrollment, 0, len(payload))
	for _, p := range payload {
		enrollments = append(enrollments, models.CourseEnrollment{
			CourseID:      models.CourseID(p.CourseID),
			EnrollmentKey: models.EnrollmentKey(p.EnrollmentKey),
		})
	}
	return enrollments, nil
}

// FetchCourseDetail returns the static detail of a course.
func (r *AcademicHTTPRepository) FetchCourseDetail(ctx context.Context, courseID models.CourseID, token string) (*models.CourseDetail, error) {
	var payload courseDetailPayload
	if err := r.get(ctx, ResourceCourseDetail, "/mediotec/disciplinas/id/"+url.PathEscape(string(courseID)), token, &payload); err != nil {
		return nil, err
	}
	return &models.CourseDetail{
		CourseName:    payload.CourseName,
		Description:   payload.Description,
		WorkloadHours: int(math.Round(payload.Workload)),
	}, nil
}

// FetchConceptRecords returns every concept record of a user.
func (r *AcademicHTTPRepository) FetchConceptRecords(ctx context.Context, userID models.UserID, token string) ([]models.ConceptRecord, error) {
	var payload []conceptPayload
	if err := r.get(ctx, ResourceConcepts, "/mediotec/conceitos/user/"+url.PathEscape(string(userID)), token, &payload); err != nil {
		return nil, err
	}
	records := make([]models.ConceptRecord, 0, len(payload))
	for _, p := range payload {
		records = append(records, models.ConceptRecord{
			ID:            models.ConceptRecordID(p.ID),
			Concept:       p.Concept,
			UnitCode:      p.Unit,
			ResultCode:    p.Result,
			EnrollmentKey: models.EnrollmentKey(p.EnrollmentKey),
		})
	}
	return records, nil
}

// FetchNotifications returns the published notifications in server order.
func (r *AcademicHTTPRepository) FetchNotifications(ctx context.Context, token string) ([]models.Notification, error) {
	var payload []notificationPayload
	if err := r.get(ctx, ResourceNotifications, "/mediotec/notificacoes", token, &payload); err != nil {
		return nil, err
	}
	notifications := make([]models.Notification, 0, len(payload))
	for _, p := range payload {
		notifications = append(notifications, models.Notification{
			ID:        models.NotificationID(p.ID),
			Title:     p.Title,
			Content:   p.Content,
			Category:  NormalizeCategory(p.Type),
			CreatedAt: parseTimestamp(p.CreatedAt),
		})
	}
	return notifications, nil
}

// FetchUserProfile returns the directory profile of a user.
func (r *AcademicHTTPRepository) FetchUserProfile(ctx context.Context, userID models.UserID, token string) (*models.UserProfile, error) {
	var payload userPayload
	if err := r.get(ctx, ResourceUserProfile, "/mediotec/usuarios/id/"+url.PathEscape(string(userID)), token, &payload); err != nil {
		return nil, err
	}
	if payload.UserID == "" {
		payload.UserID = string(userID)
	}
	return &models.UserProfile{
		UserID:    models.UserID(payload.UserID),
		Name:      payload.UserName,
		Email:     payload.Email,
		ClassName: payload.ClassName,
		AvatarURL: payload.AvatarURL,
	}, nil
}

func (r *AcademicHTTPRepository) get(ctx context.Context, resource, path, token string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := r.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		r.observe(resource, 0, duration)
		return fmt.Errorf("%s: %w", resource, err)
	}
	defer resp.Body.Close()
	r.observe(resource, resp.StatusCode, duration)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{Resource: resource, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%s: decode response: %w", resource, err)
	}
	return nil
}

// timestampLayouts are tried in order. The directory sometimes omits the zone; such values are read as UTC.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

// parseTimestamp reads a directory timestamp, returning the zero time when no layout matches.
func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NormalizeCategory trims and upper-cases a directory announcement type.
func NormalizeCategory(raw string) models.NotificationCategory {
	return models.NotificationCategory(strings.ToUpper(strings.TrimSpace(raw)))
}

func (r *AcademicHTTPRepository) observe(resource string, status int, duration time.Duration) {
	if r.observer != nil {
		r.observer.ObserveUpstream(resource, status, duration)
	}
}
