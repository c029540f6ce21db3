package models

import "time"

// NotificationID identifies a notification (announcement) in the directory.
type NotificationID string

// NotificationCategory classifies a notification.
type NotificationCategory string

const (
	NotificationCategoryEvent NotificationCategory = "EVENT"
	NotificationCategoryNews  NotificationCategory = "NEWS"
)

// CategoryFilter selects notifications by category. CategoryAll disables the category predicate.
type CategoryFilter string

const (
	CategoryAll   CategoryFilter = "ALL"
	CategoryEvent CategoryFilter = CategoryFilter(NotificationCategoryEvent)
	CategoryNews  CategoryFilter = CategoryFilter(NotificationCategoryNews)
)

// Notification is an announcement published to students. It is never mutated after fetch.
type Notification struct {
	ID        NotificationID       `db:"id" json:"id"`
	Title     string               `db:"title" json:"title"`
	Content   string               `db:"content" json:"content"`
	Category  NotificationCategory `db:"category" json:"category"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
}

// NotificationFilterCriterion is the search and category selection applied to a feed.
type NotificationFilterCriterion struct {
	SearchText string         `json:"search_text"`
	Category   CategoryFilter `json:"category" validate:"omitempty,oneof=ALL EVENT NEWS"`
}

// FilteredView is the derived notification list for a criterion.
type FilteredView struct {
	Items     []Notification              `json:"items"`
	Criterion NotificationFilterCriterion `json:"criterion"`
	Total     int                         `json:"total"`
	FetchedAt time.Time                   `json:"fetched_at"`
}

// FeedSnapshot is the serialisable state of a notification feed for one session view.
type FeedSnapshot struct {
	Raw       []Notification              `json:"raw"`
	Criterion NotificationFilterCriterion `json:"criterion"`
	FetchedAt time.Time                   `json:"fetched_at"`
}
