package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is a (follower, followee) edge; unique, no self-follow
type Follow struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string    `gorm:"not null;uniqueIndex:idx_follows_unique" json:"follower_id"`
	FolloweeID string    `gorm:"not null;uniqueIndex:idx_follows_unique;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Like is a (user, post) like membership row; unique per pair
type Like struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_likes_unique" json:"user_id"`
	PostID    string    `gorm:"not null;uniqueIndex:idx_likes_unique;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedPost is a (user, post) save membership row; unique per pair
type SavedPost struct {
	ID      string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string    `gorm:"not null;uniqueIndex:idx_saved_posts_unique" json:"user_id"`
	PostID  string    `gorm:"not null;uniqueIndex:idx_saved_posts_unique;index" json:"post_id"`
	SavedAt time.Time `json:"saved_at"`
}

// NotificationType distinguishes notification kinds
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationNewPost NotificationType = "new_post"
)

// MaxNotificationFetch caps notification retrieval to the newest entries
const MaxNotificationFetch = 50

// Notification is a message queued for a recipient
type Notification struct {
	ID        string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string           `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"not null" json:"type"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	RelatedID string           `json:"related_id,omitempty"`
	Read      bool             `gorm:"default:false" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// ReportStatus is the moderation state of a report
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// ReportTargetType marks what kind of content a report is about
type ReportTargetType string

const (
	ReportTargetPost    ReportTargetType = "post"
	ReportTargetComment ReportTargetType = "comment"
)

// Report is a user-filed moderation report on a post or comment
type Report struct {
	ID         string           `gorm:"primaryKey;type:uuid" json:"id"`
	TargetType ReportTargetType `gorm:"not null" json:"target_type"`
	TargetID   string           `gorm:"not null;index" json:"target_id"`
	ReporterID string           `gorm:"not null;index" json:"reporter_id"`
	Reason     string           `gorm:"not null" json:"reason"`
	Details    string           `gorm:"type:text" json:"details,omitempty"`
	Status     ReportStatus     `gorm:"default:pending" json:"status"`

	DismissedBy *string    `json:"dismissed_by,omitempty"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (s *SavedPost) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	if r.Status == "" {
		r.Status = ReportStatusPending
	}
	return nil
}
