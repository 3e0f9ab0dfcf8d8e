package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/campus/core/marks"
)

type marksRepository struct {
	db *marksTable
}

var _ marks.Repository = (*marksRepository)(nil)

func NewMarksRepository(db *DB) marks.Repository {
	return &marksRepository{db: db.marks}
}

// find returns the Record with the same natural key. The caller must hold the lock.
func (repo *marksRepository) find(rec marks.Record) *marks.Record {
	for _, r := range repo.db.table {
		if r.StudentID == rec.StudentID && r.SubjectID == rec.SubjectID &&
			r.SemesterID == rec.SemesterID && r.ExamType == rec.ExamType {
			return r
		}
	}
	return nil
}

func (repo *marksRepository) UpsertMarks(_ context.Context, rec marks.Record) (marks.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing := repo.find(rec); existing != nil {
		existing.MarksObtained = rec.MarksObtained
		existing.MaxMarks = rec.MaxMarks
		existing.Grade = rec.Grade
		existing.Percentage = rec.Percentage
		existing.Result = rec.Result
		existing.UpdatedAt = rec.UpdatedAt
		return *existing, nil
	}
	rec.ID = newID()
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *marksRepository) GetMarks(_ context.Context, id string) (marks.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return marks.Record{}, marks.ErrNotFound
}

func (repo *marksRepository) UpdateMarks(_ context.Context, rec marks.Record) (marks.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[rec.ID]
	if !ok {
		return marks.Record{}, marks.ErrNotFound
	}
	if other := repo.find(rec); other != nil && other.ID != rec.ID {
		return marks.Record{}, marks.ErrMarksExists
	}
	rec.CreatedAt = orig.CreatedAt
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *marksRepository) DeleteMarks(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return marks.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *marksRepository) QueryMarks(_ context.Context, filter marks.Filter) ([]marks.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]marks.Record, 0)
	for _, r := range repo.db.table {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectID != "" && r.SubjectID != filter.SubjectID {
			continue
		}
		if filter.SemesterID != "" && r.SemesterID != filter.SemesterID {
			continue
		}
		recs = append(recs, *r)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
	return recs, nil
}
