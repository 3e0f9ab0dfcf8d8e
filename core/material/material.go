// Package material manages the study materials shared by teachers.
package material

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

var ErrNotFound = core.NewNotFoundError("material not found")

type (
	// Material is visible to the students of its Branch and Year.
	Material struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		FileURL     string    `json:"file_url"`
		Branch      string    `json:"branch"`
		Year        int       `json:"year"`
		UploadedBy  string    `json:"uploaded_by"`
		CreatedAt   time.Time `json:"created_at"`
	}

	NewMaterial struct {
		Title       string `json:"title" validate:"required,notblank"`
		Description string `json:"description"`
		FileURL     string `json:"file_url" validate:"required,url"`
		Branch      string `json:"branch" validate:"required"`
		Year        int    `json:"year" validate:"required,min=1,max=6"`
	}

	Filter struct {
		Branch     string
		Year       int
		UploadedBy string
	}
)

func (nm *NewMaterial) Clean() {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.FileURL = core.CleanString(nm.FileURL)
	nm.Branch = core.CleanString(nm.Branch)
}

type (
	Repository interface {
		CreateMaterial(ctx context.Context, m Material) (Material, error)
		GetMaterial(ctx context.Context, id string) (Material, error)
		// QueryMaterials returns the newest first.
		QueryMaterials(ctx context.Context, filter Filter) ([]Material, error)
		DeleteMaterial(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, teacherID string, nm NewMaterial) (Material, error)
		QueryForStudent(ctx context.Context, student user.User) ([]Material, error)
		QueryByUploader(ctx context.Context, teacherID string) ([]Material, error)
		Delete(ctx context.Context, teacherID, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, teacherID string, nm NewMaterial) (Material, error) {
	nm.Clean()
	m, err := svc.repo.CreateMaterial(ctx, Material{
		Title:       nm.Title,
		Description: nm.Description,
		FileURL:     nm.FileURL,
		Branch:      nm.Branch,
		Year:        nm.Year,
		UploadedBy:  teacherID,
		CreatedAt:   time.Now().UTC(),
	})
	return m, errors.Wrap(err, "creating material")
}

func (svc *service) QueryForStudent(ctx context.Context, student user.User) ([]Material, error) {
	if student.Branch == "" || student.Year == 0 {
		return []Material{}, nil
	}
	return svc.repo.QueryMaterials(ctx, Filter{Branch: student.Branch, Year: student.Year})
}

func (svc *service) QueryByUploader(ctx context.Context, teacherID string) ([]Material, error) {
	return svc.repo.QueryMaterials(ctx, Filter{UploadedBy: teacherID})
}

// Delete removes the Material. Only its uploader may delete it.
func (svc *service) Delete(ctx context.Context, teacherID, id string) error {
	m, err := svc.repo.GetMaterial(ctx, id)
	if err != nil {
		return err
	}
	if teacherID == "" || m.UploadedBy != teacherID {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteMaterial(ctx, id)
}
