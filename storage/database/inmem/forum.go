package inmem

import (
	"sort"

	"github.com/trezcool/learnhub/core/forum"
)

type forumRepository struct {
	db *forumTable
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(db *DB) forum.Repository {
	return &forumRepository{db: db.forum}
}

func (repo *forumRepository) get(id string) (forum.Post, bool) {
	p, ok := repo.db.posts[id]
	if !ok {
		return forum.Post{}, false
	}
	post := *p
	post.Replies = append([]forum.Reply(nil), repo.db.replies[id]...)
	return post, true
}

func (repo *forumRepository) CreatePost(post forum.Post) (forum.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.posts[post.ID] = &post
	return post, nil
}

func (repo *forumRepository) QueryAllPosts() ([]forum.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	posts := make([]forum.Post, 0, len(repo.db.posts))
	for id := range repo.db.posts {
		post, _ := repo.get(id)
		posts = append(posts, post)
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (repo *forumRepository) GetPostByID(id string) (forum.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if post, ok := repo.get(id); ok {
		return post, nil
	}
	return forum.Post{}, forum.ErrPostNotFound
}

func (repo *forumRepository) UpdatePost(post forum.Post) (forum.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.posts[post.ID]
	if !ok {
		return forum.Post{}, forum.ErrPostNotFound
	}
	// tallies are owned by SaveVote
	post.Upvotes = orig.Upvotes
	post.Downvotes = orig.Downvotes
	post.Replies = nil
	repo.db.posts[post.ID] = &post

	saved, _ := repo.get(post.ID)
	return saved, nil
}

func (repo *forumRepository) DeletePostsByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.posts, id)
		delete(repo.db.replies, id)
		delete(repo.db.votes, id)
	}
	return nil
}

func (repo *forumRepository) CreateReply(reply forum.Reply) (forum.Reply, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.posts[reply.PostID]; !ok {
		return forum.Reply{}, forum.ErrPostNotFound
	}
	repo.db.replies[reply.PostID] = append(repo.db.replies[reply.PostID], reply)
	return reply, nil
}

func (repo *forumRepository) SaveVote(vote forum.Vote) (int, int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	post, ok := repo.db.posts[vote.PostID]
	if !ok {
		return 0, 0, forum.ErrPostNotFound
	}

	votes, ok := repo.db.votes[vote.PostID]
	if !ok {
		votes = make(map[string]string)
		repo.db.votes[vote.PostID] = votes
	}
	votes[vote.UserID] = vote.Type

	var upvotes, downvotes int
	for _, typ := range votes {
		if typ == forum.VoteUp {
			upvotes++
		} else {
			downvotes++
		}
	}
	post.Upvotes = upvotes
	post.Downvotes = downvotes
	return upvotes, downvotes, nil
}
