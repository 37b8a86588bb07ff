package forum

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/learnhub/core"
)

// Vote types
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Sort options for post listings
const (
	SortDefault     = "" // pinned first, then newest
	SortNewest      = "newest"
	SortOldest      = "oldest"
	SortMostReplies = "most-replies"
	SortMostUpvotes = "most-upvotes"
)

var Categories = []string{
	"General Discussion",
	"Course Help",
	"Study Groups",
	"Career Advice",
	"Technical Support",
	"Project Showcase",
	"Resources & Materials",
	"Announcements",
}

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"` // UTC
}

type Post struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Author      Author       `json:"author"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags"`
	Replies     []Reply      `json:"replies"`
	Upvotes     int          `json:"upvotes"`
	Downvotes   int          `json:"downvotes"`
	IsPinned    bool         `json:"is_pinned"`
	IsClosed    bool         `json:"is_closed"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"created_at"` // UTC
	UpdatedAt   time.Time    `json:"updated_at"` // UTC
}

type Reply struct {
	ID          string       `json:"id"`
	PostID      string       `json:"post_id"`
	Content     string       `json:"content"`
	Author      Author       `json:"author"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"created_at"` // UTC
}

type Vote struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"` // up | down
	CreatedAt time.Time `json:"created_at"`
}

// NewPost contains information needed to create a new Post. Attachments
// carry the metadata returned by the attachment upload endpoint.
type NewPost struct {
	Title       string       `json:"title" validate:"required"`
	Content     string       `json:"content" validate:"required"`
	Category    string       `json:"category" validate:"required"`
	Tags        []string     `json:"tags"`
	Attachments []Attachment `json:"attachments"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Content = core.CleanString(np.Content)
	np.Category = core.CleanString(np.Category)
	return validate.Struct(np)
}

// NewReply contains information needed to reply to a Post. Attachments
// carry the metadata returned by the attachment upload endpoint.
type NewReply struct {
	Content     string       `json:"content" validate:"required"`
	Attachments []Attachment `json:"attachments"`
}

func (nr *NewReply) Validate(validate *validator.Validate) error {
	nr.Content = core.CleanString(nr.Content)
	return validate.Struct(nr)
}

// NewVote is a user's up/down vote on a Post.
type NewVote struct {
	Type string `json:"type" validate:"required,oneof=up down"`
}

func (nv *NewVote) Validate(validate *validator.Validate) error {
	nv.Type = core.CleanString(nv.Type, true /* lower */)
	return validate.Struct(nv)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	SortBy   string `query:"sort"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
	qf.SortBy = core.CleanString(qf.SortBy, true /* lower */)
}
