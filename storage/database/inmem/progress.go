package inmem

import (
	"sort"

	"github.com/trezcool/learnhub/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

func (repo *progressRepository) CreateCourseProgress(cp progress.CourseProgress) (progress.CourseProgress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[pairKey(cp.UserID, cp.CourseID)] = &cp
	return cp, nil
}

func (repo *progressRepository) GetCourseProgress(userID, courseID string) (progress.CourseProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cp, ok := repo.db.table[pairKey(userID, courseID)]; ok {
		return *cp, nil
	}
	return progress.CourseProgress{}, progress.ErrNotTracked
}

func (repo *progressRepository) GetUserProgress(userID string) ([]progress.CourseProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var all []progress.CourseProgress
	for _, cp := range repo.db.table {
		if cp.UserID == userID {
			all = append(all, *cp)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].LastAccessedAt.After(all[j].LastAccessedAt) })
	return all, nil
}

func (repo *progressRepository) UpdateCourseProgress(cp progress.CourseProgress) (progress.CourseProgress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := pairKey(cp.UserID, cp.CourseID)
	if _, ok := repo.db.table[key]; !ok {
		return progress.CourseProgress{}, progress.ErrNotTracked
	}
	repo.db.table[key] = &cp
	return cp, nil
}
