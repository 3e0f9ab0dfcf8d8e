package inmemdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/trezcool/campus/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTables
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func summaryKey(s attendance.Summary) string {
	return fmt.Sprintf("%s|%d|%d", s.StudentID, s.Year, s.Month)
}

func (repo *attendanceRepository) UpsertSummary(_ context.Context, s attendance.Summary) (attendance.Summary, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := summaryKey(s)
	if existing, ok := repo.db.summaries[key]; ok {
		existing.TotalDays = s.TotalDays
		existing.PresentDays = s.PresentDays
		existing.AbsentDays = s.AbsentDays
		existing.Percentage = s.Percentage
		existing.RecordedBy = s.RecordedBy
		existing.UpdatedAt = s.UpdatedAt
		return *existing, nil
	}
	s.ID = newID()
	repo.db.summaries[key] = &s
	return s, nil
}

func (repo *attendanceRepository) QuerySummaries(_ context.Context, studentID string) ([]attendance.Summary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sums := make([]attendance.Summary, 0)
	for _, s := range repo.db.summaries {
		if s.StudentID == studentID {
			sums = append(sums, *s)
		}
	}
	sort.Slice(sums, func(i, j int) bool {
		if sums[i].Year != sums[j].Year {
			return sums[i].Year > sums[j].Year
		}
		return sums[i].Month > sums[j].Month
	})
	return sums, nil
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.ID = newID()
	repo.db.records = append(repo.db.records, rec)
	return rec, nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, r := range repo.db.records {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && r.CourseID != filter.CourseID {
			continue
		}
		recs = append(recs, r)
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.After(recs[j].Date) })
	return recs, nil
}
