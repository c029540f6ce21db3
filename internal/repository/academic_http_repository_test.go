package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
)

type upstreamObservation struct {
	resource string
	status   int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []upstreamObservation
}

func (o *recordingObserver) ObserveUpstream(resource string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, upstreamObservation{resource: resource, status: status})
}

func newDirectoryServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, "missing", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAcademicHTTPRepositoryFetchesAndMaps(t *testing.T) {
	srv := newDirectoryServer(t, map[string]string{
		"/mediotec/relacionamento/user/u1": `[{"classId":"c1","className":"3A"}]`,
		"/mediotec/turmas/classCourse/c1":  `[{"courseId":"MATH","user_class_courseId":"k1"},{"courseId":"BIO","user_class_courseId":"k2"}]`,
		"/mediotec/disciplinas/id/MATH":    `{"courseName":"Matemática","description":"Álgebra","workload":80}`,
		"/mediotec/conceitos/user/u1":      `[{"conceitoId":"r1","conceito":"A","unidade":"UNIT1","result":"APPROVED","user_class_courseId":"k1"}]`,
		"/mediotec/notificacoes":           `[{"announcementId":"n1","title":"Prova","content":"Sexta","announcementType":"event","createdAt":"2024-03-01T10:00:00Z"}]`,
		"/mediotec/usuarios/id/u1":         `{"userId":"u1","userName":"Ana","email":"ana@example.com","className":"3A"}`,
	})
	observer := &recordingObserver{}
	repo := NewAcademicHTTPRepository(srv.URL+"/", nil, time.Second, observer)
	ctx := context.Background()

	memberships, err := repo.FetchClassMemberships(ctx, "u1", "tok")
	require.NoError(t, err)
	assert.Equal(t, []models.ClassMembership{{ClassID: "c1", ClassName: "3A"}}, memberships)

	enrollments, err := repo.FetchCourseEnrollments(ctx, "c1", "tok")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	assert.Equal(t, models.EnrollmentKey("k2"), enrollments[1].EnrollmentKey)

	detail, err := repo.FetchCourseDetail(ctx, "MATH", "tok")
	require.NoError(t, err)
	assert.Equal(t, &models.CourseDetail{CourseName: "Matemática", Description: "Álgebra", WorkloadHours: 80}, detail)

	records, err := repo.FetchConceptRecords(ctx, "u1", "tok")
	require.NoError(t, err)
	assert.Equal(t, []models.ConceptRecord{{ID: "r1", Concept: "A", UnitCode: "UNIT1", ResultCode: "APPROVED", EnrollmentKey: "k1"}}, records)

	notifications, err := repo.FetchNotifications(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationCategoryEvent, notifications[0].Category)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), notifications[0].CreatedAt.UTC())

	profile, err := repo.FetchUserProfile(ctx, "u1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.Name)

	assert.Len(t, observer.seen, 6)
	assert.Equal(t, upstreamObservation{resource: ResourceClassMembership, status: http.StatusOK}, observer.seen[0])
}

func TestAcademicHTTPRepositoryUpstreamError(t *testing.T) {
	srv := newDirectoryServer(t, map[string]string{})
	repo := NewAcademicHTTPRepository(srv.URL, nil, time.Second, nil)

	_, err := repo.FetchCourseDetail(context.Background(), "GHOST", "tok")
	require.Error(t, err)
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, ResourceCourseDetail, upstream.Resource)
	assert.Equal(t, http.StatusNotFound, upstream.Status)
	assert.True(t, IsNotFound(err))

	_, err = repo.FetchNotifications(context.Background(), "wrong")
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusUnauthorized, upstream.Status)
	assert.False(t, IsNotFound(err))
}

func TestAcademicHTTPRepositoryToleratesZonelessTimestamps(t *testing.T) {
	srv := newDirectoryServer(t, map[string]string{"/mediotec/notificacoes": `[
		{"announcementId":"n1","title":"Prova","announcementType":" news ","createdAt":"2024-11-05T14:30:00.123456"},
		{"announcementId":"n2","title":"Feira","announcementType":"EVENT","createdAt":"2024-11-06T09:00:00-03:00"},
		{"announcementId":"n3","title":"Férias","announcementType":"NEWS","createdAt":"amanhã"},
		{"announcementId":"n4","title":"Aviso","announcementType":"NEWS"}
	]`})
	repo := NewAcademicHTTPRepository(srv.URL, nil, time.Second, nil)

	notifications, err := repo.FetchNotifications(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, notifications, 4)
	assert.Equal(t, time.Date(2024, 11, 5, 14, 30, 0, 123456000, time.UTC), notifications[0].CreatedAt)
	assert.Equal(t, models.NotificationCategoryNews, notifications[0].Category)
	assert.Equal(t, time.Date(2024, 11, 6, 12, 0, 0, 0, time.UTC), notifications[1].CreatedAt.UTC())
	assert.True(t, notifications[2].CreatedAt.IsZero())
	assert.True(t, notifications[3].CreatedAt.IsZero())
}

func TestAcademicHTTPRepositoryDecodeError(t *testing.T) {
	srv := newDirectoryServer(t, map[string]string{"/mediotec/notificacoes": `{not json`})
	repo := NewAcademicHTTPRepository(srv.URL, nil, time.Second, nil)

	_, err := repo.FetchNotifications(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestAcademicHTTPRepositoryEscapesPathSegments(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	repo := NewAcademicHTTPRepository(srv.URL, nil, time.Second, nil)

	_, err := repo.FetchConceptRecords(context.Background(), "a/b", "tok")
	require.NoError(t, err)
	assert.Equal(t, "/mediotec/conceitos/user/a%2Fb", gotPath)
}
