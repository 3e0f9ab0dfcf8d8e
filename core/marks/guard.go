package marks

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
)

// SubjectGetter resolves a Subject by ID.
type SubjectGetter interface {
	GetSubject(ctx context.Context, id string) (academic.Subject, error)
}

// Guard authorizes marks mutations: only the subject's faculty may write them.
type Guard struct {
	subjects SubjectGetter
}

func NewGuard(subjects SubjectGetter) Guard {
	return Guard{subjects: subjects}
}

// Authorize fails with core.ErrPermissionDenied unless teacherID is the faculty of the record's subject.
func (g Guard) Authorize(ctx context.Context, teacherID string, rec Record) error {
	return g.AuthorizeSubject(ctx, teacherID, rec.SubjectID)
}

func (g Guard) AuthorizeSubject(ctx context.Context, teacherID, subjectID string) error {
	sub, err := g.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return errors.Wrap(err, "finding subject")
	}
	if teacherID == "" || sub.FacultyID != teacherID {
		return core.ErrPermissionDenied
	}
	return nil
}
