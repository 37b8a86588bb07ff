package forum

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrPostNotFound = errors.New("post not found")
	ErrPostClosed   = errors.New("post is closed")
)

type (
	Repository interface {
		CreatePost(post Post) (Post, error)
		QueryAllPosts() ([]Post, error)
		GetPostByID(id string) (Post, error)
		UpdatePost(post Post) (Post, error)
		DeletePostsByID(ids ...string) error

		CreateReply(reply Reply) (Reply, error)

		// SaveVote inserts or replaces the user's vote on a post and
		// returns the recomputed tallies.
		SaveVote(vote Vote) (upvotes, downvotes int, err error)
	}

	Service interface {
		CreatePost(author Author, np NewPost, attachments ...Attachment) (Post, error)
		QueryAll() ([]Post, error)
		Filter(filter *QueryFilter) ([]Post, error)
		GetByID(id string) (Post, error)
		Reply(postID string, author Author, nr NewReply, attachments ...Attachment) (Reply, error)
		// Vote records a user's up/down vote; a repeat vote switches the
		// vote type instead of stacking. Returns the updated post.
		Vote(postID, userID, voteType string) (Post, error)
		SetPinned(postID string, pinned bool) (Post, error)
		SetClosed(postID string, closed bool) (Post, error)
		Delete(ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreatePost(author Author, np NewPost, attachments ...Attachment) (Post, error) {
	now := time.Now().UTC()
	post := Post{
		ID:          uuid.New().String(),
		Title:       np.Title,
		Content:     np.Content,
		Author:      author,
		Category:    np.Category,
		Tags:        np.Tags,
		Attachments: attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreatePost(post)
}

func (svc *service) QueryAll() ([]Post, error) {
	return svc.repo.QueryAllPosts()
}

func (svc *service) Filter(filter *QueryFilter) ([]Post, error) {
	posts, err := svc.repo.QueryAllPosts()
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return FilterPosts(posts, "", "", SortDefault), nil
	}
	return FilterPosts(posts, filter.Search, filter.Category, filter.SortBy), nil
}

func (svc *service) GetByID(id string) (Post, error) {
	return svc.repo.GetPostByID(id)
}

func (svc *service) Reply(postID string, author Author, nr NewReply, attachments ...Attachment) (Reply, error) {
	post, err := svc.repo.GetPostByID(postID)
	if err != nil {
		return Reply{}, err
	}
	if post.IsClosed {
		return Reply{}, ErrPostClosed
	}

	reply := Reply{
		ID:          uuid.New().String(),
		PostID:      postID,
		Content:     nr.Content,
		Author:      author,
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateReply(reply)
}

func (svc *service) Vote(postID, userID, voteType string) (Post, error) {
	if _, err := svc.repo.GetPostByID(postID); err != nil {
		return Post{}, err
	}

	vote := Vote{
		PostID:    postID,
		UserID:    userID,
		Type:      voteType,
		CreatedAt: time.Now().UTC(),
	}
	if _, _, err := svc.repo.SaveVote(vote); err != nil {
		return Post{}, errors.Wrap(err, "saving vote")
	}
	return svc.repo.GetPostByID(postID)
}

func (svc *service) SetPinned(postID string, pinned bool) (Post, error) {
	post, err := svc.repo.GetPostByID(postID)
	if err != nil {
		return Post{}, err
	}
	post.IsPinned = pinned
	post.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePost(post)
}

func (svc *service) SetClosed(postID string, closed bool) (Post, error) {
	post, err := svc.repo.GetPostByID(postID)
	if err != nil {
		return Post{}, err
	}
	post.IsClosed = closed
	post.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePost(post)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeletePostsByID(ids...)
}
