package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer.
// SQLite stores the same encoded form as TEXT, so tests can share the type.
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// UsernameChange is one entry in a user's alias history
type UsernameChange struct {
	Username  string    `json:"username"`
	ChangedAt time.Time `json:"changed_at"`
}

const (
	// MaxPreviousUsernames bounds the alias history
	MaxPreviousUsernames = 10
	// MaxAboutMeLength bounds the about-me text
	MaxAboutMeLength = 500
	// UsernameChangeCooldown is the minimum gap between username changes
	UsernameChangeCooldown = 7 * 24 * time.Hour
)

// User represents an ArtHub account
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`

	// Passwords are bcrypt-hashed by the auth service for every store
	PasswordHash string `gorm:"type:text;not null" json:"-"`

	// Profile data
	ProfilePicture string `gorm:"type:text" json:"profile_picture"` // base64 data URL, size-constrained
	AboutMe        string `gorm:"type:text" json:"about_me"`

	// Social stats (mirrored on follow/unfollow and post creation)
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostCount      int `gorm:"default:0" json:"post_count"`

	// Moderation
	IsAdmin   bool       `gorm:"default:false" json:"is_admin"`
	Banned    bool       `gorm:"default:false" json:"banned"`
	BanReason string     `gorm:"type:text" json:"ban_reason,omitempty"`
	BannedAt  *time.Time `json:"banned_at,omitempty"`
	BannedBy  *string    `json:"banned_by,omitempty"`

	// Username change tracking
	LastUsernameChange *time.Time       `json:"last_username_change,omitempty"`
	PreviousUsernames  []UsernameChange `gorm:"type:jsonb;serializer:json" json:"previous_usernames,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
