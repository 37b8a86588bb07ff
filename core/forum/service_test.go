package forum_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/forum"
	"github.com/trezcool/learnhub/storage/database/inmem"
)

func setup(t *testing.T) forum.Service {
	t.Helper()
	db, err := inmem.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return forum.NewService(inmem.NewForumRepository(db))
}

func createPost(t *testing.T, svc forum.Service, title string) forum.Post {
	t.Helper()
	post, err := svc.CreatePost(
		forum.Author{ID: "u1", Name: "Jane", Role: "student"},
		forum.NewPost{Title: title, Content: "content", Category: "General Discussion"},
	)
	if err != nil {
		t.Fatalf("createPost() failed: %v", err)
	}
	return post
}

func TestService_Reply(t *testing.T) {
	svc := setup(t)
	post := createPost(t, svc, "Hello")

	reply, err := svc.Reply(post.ID, forum.Author{ID: "u2", Name: "Bob"}, forum.NewReply{Content: "hi!"})
	if err != nil {
		t.Fatalf("Reply() failed: %v", err)
	}
	if reply.PostID != post.ID || reply.ID == "" {
		t.Errorf("Reply() = %+v", reply)
	}

	got, err := svc.GetByID(post.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if len(got.Replies) != 1 || got.Replies[0].Content != "hi!" {
		t.Errorf("Replies = %+v", got.Replies)
	}

	t.Run("closed post rejects replies", func(t *testing.T) {
		if _, err := svc.SetClosed(post.ID, true); err != nil {
			t.Fatalf("SetClosed() failed: %v", err)
		}
		_, err := svc.Reply(post.ID, forum.Author{ID: "u2"}, forum.NewReply{Content: "late"})
		if errors.Cause(err) != forum.ErrPostClosed {
			t.Errorf("Reply() = %v; want %v", err, forum.ErrPostClosed)
		}
	})

	t.Run("unknown post", func(t *testing.T) {
		_, err := svc.Reply("nope", forum.Author{ID: "u2"}, forum.NewReply{Content: "?"})
		if errors.Cause(err) != forum.ErrPostNotFound {
			t.Errorf("Reply() = %v; want %v", err, forum.ErrPostNotFound)
		}
	})
}

func TestService_Attachments(t *testing.T) {
	svc := setup(t)
	att := forum.Attachment{
		ID:         "a1",
		Name:       "notes.pdf",
		Size:       42,
		Type:       "pdf",
		URL:        "/v1/forum/attachments/a1/notes.pdf",
		UploadedBy: "u1",
	}

	post, err := svc.CreatePost(
		forum.Author{ID: "u1", Name: "Jane", Role: "student"},
		forum.NewPost{Title: "With files", Content: "content", Category: "Resources & Materials"},
		att,
	)
	if err != nil {
		t.Fatalf("CreatePost() failed: %v", err)
	}
	if len(post.Attachments) != 1 || post.Attachments[0] != att {
		t.Errorf("Attachments = %+v; want [%+v]", post.Attachments, att)
	}

	replyAtt := att
	replyAtt.ID, replyAtt.Name = "a2", "fix.png"
	if _, err = svc.Reply(post.ID, forum.Author{ID: "u2", Name: "Bob"}, forum.NewReply{Content: "see attached"}, replyAtt); err != nil {
		t.Fatalf("Reply() failed: %v", err)
	}

	got, err := svc.GetByID(post.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if len(got.Attachments) != 1 || got.Attachments[0] != att {
		t.Errorf("post Attachments = %+v; want [%+v]", got.Attachments, att)
	}
	if len(got.Replies) != 1 || len(got.Replies[0].Attachments) != 1 || got.Replies[0].Attachments[0] != replyAtt {
		t.Errorf("reply Attachments = %+v; want [%+v]", got.Replies, replyAtt)
	}
}

func TestService_Vote(t *testing.T) {
	svc := setup(t)
	post := createPost(t, svc, "Vote on me")

	t.Run("upvote", func(t *testing.T) {
		got, err := svc.Vote(post.ID, "u2", forum.VoteUp)
		if err != nil {
			t.Fatalf("Vote() failed: %v", err)
		}
		if got.Upvotes != 1 || got.Downvotes != 0 {
			t.Errorf("tallies = %d/%d; want 1/0", got.Upvotes, got.Downvotes)
		}
	})

	t.Run("repeat vote switches instead of stacking", func(t *testing.T) {
		got, err := svc.Vote(post.ID, "u2", forum.VoteDown)
		if err != nil {
			t.Fatalf("Vote() failed: %v", err)
		}
		if got.Upvotes != 0 || got.Downvotes != 1 {
			t.Errorf("tallies = %d/%d; want 0/1", got.Upvotes, got.Downvotes)
		}
	})

	t.Run("votes from distinct users accumulate", func(t *testing.T) {
		if _, err := svc.Vote(post.ID, "u3", forum.VoteDown); err != nil {
			t.Fatalf("Vote() failed: %v", err)
		}
		got, err := svc.Vote(post.ID, "u4", forum.VoteUp)
		if err != nil {
			t.Fatalf("Vote() failed: %v", err)
		}
		if got.Upvotes != 1 || got.Downvotes != 2 {
			t.Errorf("tallies = %d/%d; want 1/2", got.Upvotes, got.Downvotes)
		}
	})

	t.Run("unknown post", func(t *testing.T) {
		if _, err := svc.Vote("nope", "u2", forum.VoteUp); errors.Cause(err) != forum.ErrPostNotFound {
			t.Errorf("Vote() = %v; want %v", err, forum.ErrPostNotFound)
		}
	})
}

func TestService_Moderation(t *testing.T) {
	svc := setup(t)
	post := createPost(t, svc, "Pin me")

	got, err := svc.SetPinned(post.ID, true)
	if err != nil {
		t.Fatalf("SetPinned() failed: %v", err)
	}
	if !got.IsPinned {
		t.Error("post not pinned")
	}

	got, err = svc.SetPinned(post.ID, false)
	if err != nil {
		t.Fatalf("SetPinned() failed: %v", err)
	}
	if got.IsPinned {
		t.Error("post still pinned")
	}

	if _, err = svc.SetClosed("nope", true); errors.Cause(err) != forum.ErrPostNotFound {
		t.Errorf("SetClosed() = %v; want %v", err, forum.ErrPostNotFound)
	}
}
