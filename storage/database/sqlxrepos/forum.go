package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/forum"
)

type forumRepository struct {
	db *sqlx.DB
}

var _ forum.Repository = (*forumRepository)(nil)

func NewForumRepository(db *sql.DB) *forumRepository {
	return &forumRepository{db: wrapDB(db)}
}

type postRow struct {
	ID          string         `db:"id"`
	AuthorID    string         `db:"author_id"`
	AuthorName  string         `db:"author_name"`
	AuthorRole  string         `db:"author_role"`
	Title       string         `db:"title"`
	Content     string         `db:"content"`
	Category    string         `db:"category"`
	Tags        pq.StringArray `db:"tags"`
	Attachments []byte         `db:"attachments"`
	Upvotes     int            `db:"upvotes"`
	Downvotes   int            `db:"downvotes"`
	IsPinned    bool           `db:"is_pinned"`
	IsClosed    bool           `db:"is_closed"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r postRow) toPost() (forum.Post, error) {
	post := forum.Post{
		ID:      r.ID,
		Title:   r.Title,
		Content: r.Content,
		Author: forum.Author{
			ID:   r.AuthorID,
			Name: r.AuthorName,
			Role: r.AuthorRole,
		},
		Category:  r.Category,
		Tags:      r.Tags,
		Upvotes:   r.Upvotes,
		Downvotes: r.Downvotes,
		IsPinned:  r.IsPinned,
		IsClosed:  r.IsClosed,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if len(r.Attachments) > 0 {
		if err := json.Unmarshal(r.Attachments, &post.Attachments); err != nil {
			return forum.Post{}, errors.Wrap(err, "decoding attachments")
		}
	}
	return post, nil
}

type replyRow struct {
	ID          string    `db:"id"`
	PostID      string    `db:"post_id"`
	AuthorID    string    `db:"author_id"`
	AuthorName  string    `db:"author_name"`
	AuthorRole  string    `db:"author_role"`
	Content     string    `db:"content"`
	Attachments []byte    `db:"attachments"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r replyRow) toReply() (forum.Reply, error) {
	reply := forum.Reply{
		ID:      r.ID,
		PostID:  r.PostID,
		Content: r.Content,
		Author: forum.Author{
			ID:   r.AuthorID,
			Name: r.AuthorName,
			Role: r.AuthorRole,
		},
		CreatedAt: r.CreatedAt.UTC(),
	}
	if len(r.Attachments) > 0 {
		if err := json.Unmarshal(r.Attachments, &reply.Attachments); err != nil {
			return forum.Reply{}, errors.Wrap(err, "decoding attachments")
		}
	}
	return reply, nil
}

func (repo *forumRepository) selectPosts() sq.SelectBuilder {
	return psql.Select(
		"p.id", "p.author_id", "u.name AS author_name", "u.role AS author_role",
		"p.title", "p.content", "p.category", "p.tags", "p.attachments",
		"p.upvotes", "p.downvotes", "p.is_pinned", "p.is_closed",
		"p.created_at", "p.updated_at",
	).
		From("posts p").
		Join("users u ON u.id = p.author_id")
}

func (repo *forumRepository) queryPosts(q sq.SelectBuilder) ([]forum.Post, error) {
	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []postRow
	if err = repo.db.Select(&rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	posts := make([]forum.Post, len(rows))
	for i, r := range rows {
		if posts[i], err = r.toPost(); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// attachReplies loads all replies for the given posts in one query.
func (repo *forumRepository) attachReplies(posts []forum.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	byID := make(map[string]*forum.Post, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		byID[posts[i].ID] = &posts[i]
	}

	stmt, args, err := psql.Select(
		"r.id", "r.post_id", "r.author_id", "u.name AS author_name", "u.role AS author_role",
		"r.content", "r.attachments", "r.created_at",
	).
		From("replies r").
		Join("users u ON u.id = r.author_id").
		Where(sq.Eq{"r.post_id": ids}).
		OrderBy("r.created_at ASC").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var rows []replyRow
	if err = repo.db.Select(&rows, stmt, args...); err != nil {
		return errors.Wrap(err, "querying replies")
	}
	for _, r := range rows {
		post, ok := byID[r.PostID]
		if !ok {
			continue
		}
		reply, err := r.toReply()
		if err != nil {
			return err
		}
		post.Replies = append(post.Replies, reply)
	}
	return nil
}

func (repo *forumRepository) CreatePost(post forum.Post) (forum.Post, error) {
	attachments, err := marshalAttachments(post.Attachments)
	if err != nil {
		return forum.Post{}, err
	}
	stmt, args, err := psql.Insert("posts").
		Columns(
			"id", "author_id", "title", "content", "category", "tags", "attachments",
			"upvotes", "downvotes", "is_pinned", "is_closed", "created_at", "updated_at",
		).
		Values(
			post.ID, post.Author.ID, post.Title, post.Content, post.Category,
			pq.Array(post.Tags), attachments, post.Upvotes, post.Downvotes,
			post.IsPinned, post.IsClosed, post.CreatedAt, post.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return forum.Post{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(stmt, args...); err != nil {
		return forum.Post{}, errors.Wrap(err, "creating post")
	}
	return post, nil
}

func marshalAttachments(attachments []forum.Attachment) ([]byte, error) {
	if attachments == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(attachments)
	return data, errors.Wrap(err, "encoding attachments")
}

func (repo *forumRepository) QueryAllPosts() ([]forum.Post, error) {
	posts, err := repo.queryPosts(repo.selectPosts().OrderBy("p.created_at DESC"))
	if err != nil {
		return nil, err
	}
	if err = repo.attachReplies(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (repo *forumRepository) GetPostByID(id string) (forum.Post, error) {
	stmt, args, err := repo.selectPosts().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return forum.Post{}, errors.Wrap(err, "building query")
	}
	var row postRow
	if err = repo.db.Get(&row, stmt, args...); err != nil {
		if err == sql.ErrNoRows {
			return forum.Post{}, forum.ErrPostNotFound
		}
		return forum.Post{}, errors.Wrap(err, "getting post")
	}
	post, err := row.toPost()
	if err != nil {
		return forum.Post{}, err
	}
	posts := []forum.Post{post}
	if err = repo.attachReplies(posts); err != nil {
		return forum.Post{}, err
	}
	return posts[0], nil
}

func (repo *forumRepository) UpdatePost(post forum.Post) (forum.Post, error) {
	attachments, err := marshalAttachments(post.Attachments)
	if err != nil {
		return forum.Post{}, err
	}
	stmt, args, err := psql.Update("posts").
		Set("title", post.Title).
		Set("content", post.Content).
		Set("category", post.Category).
		Set("tags", pq.Array(post.Tags)).
		Set("attachments", attachments).
		Set("is_pinned", post.IsPinned).
		Set("is_closed", post.IsClosed).
		Set("updated_at", post.UpdatedAt).
		Where(sq.Eq{"id": post.ID}).
		ToSql()
	if err != nil {
		return forum.Post{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.Exec(stmt, args...)
	if err != nil {
		return forum.Post{}, errors.Wrap(err, "updating post")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return forum.Post{}, forum.ErrPostNotFound
	}
	return repo.GetPostByID(post.ID)
}

func (repo *forumRepository) DeletePostsByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	stmt, args, err := psql.Delete("posts").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.Exec(stmt, args...)
	return errors.Wrap(err, "deleting posts")
}

func (repo *forumRepository) CreateReply(reply forum.Reply) (forum.Reply, error) {
	attachments, err := marshalAttachments(reply.Attachments)
	if err != nil {
		return forum.Reply{}, err
	}
	stmt, args, err := psql.Insert("replies").
		Columns("id", "post_id", "author_id", "content", "attachments", "created_at").
		Values(reply.ID, reply.PostID, reply.Author.ID, reply.Content, attachments, reply.CreatedAt).
		ToSql()
	if err != nil {
		return forum.Reply{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(stmt, args...); err != nil {
		return forum.Reply{}, errors.Wrap(err, "creating reply")
	}
	return reply, nil
}

func (repo *forumRepository) SaveVote(vote forum.Vote) (int, int, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return 0, 0, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO votes (post_id, user_id, type, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (post_id, user_id) DO UPDATE SET type = EXCLUDED.type, created_at = EXCLUDED.created_at`,
		vote.PostID, vote.UserID, vote.Type, vote.CreatedAt,
	)
	if err != nil {
		return 0, 0, errors.Wrap(err, "saving vote")
	}

	var upvotes, downvotes int
	err = tx.QueryRow(
		`SELECT COUNT(*) FILTER (WHERE type = 'up'), COUNT(*) FILTER (WHERE type = 'down')
		 FROM votes WHERE post_id = $1`,
		vote.PostID,
	).Scan(&upvotes, &downvotes)
	if err != nil {
		return 0, 0, errors.Wrap(err, "counting votes")
	}

	if _, err = tx.Exec(
		`UPDATE posts SET upvotes = $1, downvotes = $2 WHERE id = $3`,
		upvotes, downvotes, vote.PostID,
	); err != nil {
		return 0, 0, errors.Wrap(err, "updating vote tallies")
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, errors.Wrap(err, "committing vote")
	}
	return upvotes, downvotes, nil
}
