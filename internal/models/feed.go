package models

import "time"

// ContextView is the read-time projection of an approved context
type ContextView struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	Approved     bool    `json:"approved"`
	Upvotes      int     `json:"upvotes"`
	Downvotes    int     `json:"downvotes"`
	ApprovalRate float64 `json:"approval_rate"`
}

// FeedPost is a post enriched with viewer-relative flags and live counts.
// All enrichment is computed at read time, never stored.
type FeedPost struct {
	Post

	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`

	UserLiked bool `json:"user_liked"`
	UserSaved bool `json:"user_saved"`

	LikesCount    int `json:"likes_count"`
	CommentsCount int `json:"comments_count"`
	SavesCount    int `json:"saves_count"`

	Context *ContextView `json:"context"`

	// Set only on saved-posts listings
	SavedAt *time.Time `json:"saved_at,omitempty"`
}

// CommentView is a comment joined with its author's public fields
type CommentView struct {
	Comment

	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// UserSummary is the public projection of a user for listings
type UserSummary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Followers      int    `json:"followers"`
	Posts          int    `json:"posts"`
	IsFollowing    bool   `json:"is_following"`
}

// TagCount is one trending tag with its usage count
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// UserStats aggregates a user's public numbers
type UserStats struct {
	PostCount     int `json:"post_count"`
	LikesReceived int `json:"likes_received"`
	Followers     int `json:"followers"`
}
