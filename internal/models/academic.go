package models

// UserID identifies a portal user in the academic directory.
type UserID string

// ClassID identifies a class (turma).
type ClassID string

// CourseID is the catalog identifier of a course. It is shared by every class that offers the course.
type CourseID string

// EnrollmentKey identifies one user's instance of a course within a class.
// It is the only key that associates concept records with an enrollment.
type EnrollmentKey string

// ConceptRecordID is the identifier of a single concept record.
type ConceptRecordID string

// ClassMembership is the class a user belongs to.
type ClassMembership struct {
	ClassID   ClassID `db:"class_id" json:"class_id"`
	ClassName string  `db:"class_name" json:"class_name"`
}

// CourseEnrollment links a course of the user's class to the user's enrollment key.
type CourseEnrollment struct {
	CourseID      CourseID      `db:"course_id" json:"course_id"`
	EnrollmentKey EnrollmentKey `db:"enrollment_key" json:"enrollment_key"`
}

// CourseDetail holds static descriptive course data.
type CourseDetail struct {
	CourseName    string `db:"course_name" json:"course_name"`
	Description   string `db:"description" json:"description"`
	WorkloadHours int    `db:"workload_hours" json:"workload_hours"`
}

// ConceptRecord is a grade/result entry for one unit of one course enrollment.
type ConceptRecord struct {
	ID            ConceptRecordID `db:"id" json:"id"`
	Concept       string          `db:"concept" json:"concept"`
	UnitCode      string          `db:"unit_code" json:"unit_code"`
	ResultCode    string          `db:"result_code" json:"result_code"`
	EnrollmentKey EnrollmentKey   `db:"enrollment_key" json:"enrollment_key"`
}

// DisplayConcept is a concept record with unit and result codes translated to labels.
type DisplayConcept struct {
	ID            ConceptRecordID `json:"id"`
	Concept       string          `json:"concept"`
	Unit          string          `json:"unit"`
	Result        string          `json:"result"`
	EnrollmentKey EnrollmentKey   `json:"enrollment_key"`
}

// AggregatedCourseView joins an enrollment with its course detail and concept records.
// Concepts holds exactly the records whose EnrollmentKey matches, in source order.
type AggregatedCourseView struct {
	EnrollmentKey   EnrollmentKey    `json:"enrollment_key"`
	CourseID        CourseID         `json:"course_id"`
	Detail          *CourseDetail    `json:"detail"`
	DetailAvailable bool             `json:"detail_available"`
	Concepts        []ConceptRecord  `json:"concepts"`
	Display         []DisplayConcept `json:"display_concepts"`
}

// CourseAggregate is the aggregated course list of a user together with its class.
type CourseAggregate struct {
	ClassID   ClassID                `json:"class_id"`
	ClassName string                 `json:"class_name"`
	Courses   []AggregatedCourseView `json:"courses"`
	Partial   bool                   `json:"partial"`
}

// UserProfile describes the signed-in user as returned by the directory.
type UserProfile struct {
	UserID    UserID `db:"user_id" json:"user_id"`
	Name      string `db:"user_name" json:"name"`
	Email     string `db:"email" json:"email"`
	ClassName string `db:"class_name" json:"class_name"`
	AvatarURL string `db:"avatar_url" json:"avatar_url,omitempty"`
}
