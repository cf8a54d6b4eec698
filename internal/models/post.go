package models

import (
	"time"

	"gorm.io/gorm"
)

// PostVisibility is the moderation state of a post
type PostVisibility string

const (
	VisibilityPublic  PostVisibility = "public"
	VisibilityHidden  PostVisibility = "hidden"
	VisibilityRemoved PostVisibility = "removed"
)

// Post represents a shared artwork post
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Body         string      `gorm:"type:text;not null" json:"body"`
	OriginalBody string      `gorm:"type:text" json:"original_body,omitempty"` // kept on first edit
	ImageURL     string      `gorm:"type:text" json:"image_url,omitempty"`     // inline data URL
	Tags         StringArray `gorm:"type:text[]" json:"tags,omitempty"`

	// Cached engagement counters; source of truth is the membership tables
	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	// Moderation: posts are soft-removed, never physically deleted by admins
	Visibility   PostVisibility `gorm:"default:public" json:"visibility"`
	HiddenReason string         `gorm:"type:text" json:"hidden_reason,omitempty"`
	RemovedAt    *time.Time     `json:"removed_at,omitempty"`
	RemovedBy    *string        `json:"removed_by,omitempty"`

	EditedAt *time.Time `json:"edited_at,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// VoteDirection is a context vote value
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// ApprovalThreshold is the community approval cutoff in percent
const ApprovalThreshold = 90.0

// Context is the single reader-supplied annotation attachable to a post.
// contexts.post_id is unique: one context per post.
type Context struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"uniqueIndex;not null" json:"post_id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	Text   string `gorm:"type:text;not null" json:"text"`

	// Community vote tally; counts must equal the vote membership cardinality
	Upvotes      int     `gorm:"default:0" json:"upvotes"`
	Downvotes    int     `gorm:"default:0" json:"downvotes"`
	ApprovalRate float64 `gorm:"default:0" json:"approval_rate"`
	Approved     bool    `gorm:"default:false" json:"approved"`

	// Admin override, independent of the tally
	AdminApproved   *bool      `json:"admin_approved,omitempty"`
	AdminReviewedAt *time.Time `json:"admin_reviewed_at,omitempty"`
	AdminReviewedBy *string    `json:"admin_reviewed_by,omitempty"`

	Votes []ContextVote `gorm:"foreignKey:ContextID" json:"votes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDisplayApproved reports whether the context should be shown as approved:
// an explicit admin approval is sufficient regardless of the vote ratio.
func (c *Context) IsDisplayApproved() bool {
	if c.AdminApproved != nil && *c.AdminApproved {
		return true
	}
	return c.Approved
}

// Recompute recalculates the tally and approval state from the vote set.
// Zero votes means 0% and not approved.
func (c *Context) Recompute() {
	up, down := 0, 0
	for _, v := range c.Votes {
		switch v.Vote {
		case VoteUp:
			up++
		case VoteDown:
			down++
		}
	}
	c.Upvotes = up
	c.Downvotes = down
	total := up + down
	if total == 0 {
		c.ApprovalRate = 0
		c.Approved = false
		return
	}
	c.ApprovalRate = float64(up) / float64(total) * 100
	c.Approved = c.ApprovalRate >= ApprovalThreshold
}

// ContextVote records one user's vote on a context; at most one per user
type ContextVote struct {
	ID        string        `gorm:"primaryKey;type:uuid" json:"id"`
	ContextID string        `gorm:"not null;uniqueIndex:idx_context_votes_unique" json:"context_id"`
	UserID    string        `gorm:"not null;uniqueIndex:idx_context_votes_unique" json:"user_id"`
	Vote      VoteDirection `gorm:"not null" json:"vote"`
	CreatedAt time.Time     `json:"created_at"`
}

// Comment represents a comment on a post
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	Text   string `gorm:"type:text;not null" json:"text"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}
	return nil
}

func (c *Context) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (v *ContextVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
