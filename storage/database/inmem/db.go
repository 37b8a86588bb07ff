// Package inmem provides in-memory repository implementations backed by
// mutex-guarded maps. They are used by tests and local development.
package inmem

import (
	"sync"

	"github.com/trezcool/learnhub/core/certificate"
	"github.com/trezcool/learnhub/core/course"
	"github.com/trezcool/learnhub/core/forum"
	"github.com/trezcool/learnhub/core/progress"
	"github.com/trezcool/learnhub/core/user"
)

type (
	DB struct {
		user        *userTable
		course      *courseTable
		forum       *forumTable
		progress    *progressTable
		certificate *certificateTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table       map[string]*course.Course
		enrollments map[string]course.Enrollment // key: userID + "/" + courseID
	}

	forumTable struct {
		sync.RWMutex
		posts   map[string]*forum.Post
		replies map[string][]forum.Reply    // key: postID
		votes   map[string]map[string]string // key: postID -> userID -> vote type
	}

	progressTable struct {
		sync.RWMutex
		table map[string]*progress.CourseProgress // key: userID + "/" + courseID
	}

	certificateTable struct {
		sync.RWMutex
		table map[string]*certificate.Certificate
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			table:       make(map[string]*course.Course),
			enrollments: make(map[string]course.Enrollment),
		},
		forum: &forumTable{
			posts:   make(map[string]*forum.Post),
			replies: make(map[string][]forum.Reply),
			votes:   make(map[string]map[string]string),
		},
		progress:    &progressTable{table: make(map[string]*progress.CourseProgress)},
		certificate: &certificateTable{table: make(map[string]*certificate.Certificate)},
	}
	return db, nil
}

func pairKey(userID, courseID string) string {
	return userID + "/" + courseID
}
