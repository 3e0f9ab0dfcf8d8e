// Package news manages the announcements published by admins.
package news

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var ErrNotFound = core.NewNotFoundError("news not found")

type (
	News struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		CreatedBy string    `json:"created_by"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	NewNews struct {
		Title   string `json:"title" validate:"required,notblank"`
		Message string `json:"message" validate:"required,notblank"`
	}

	UpdateNews struct {
		Title   *string `json:"title" validate:"omitempty,notblank"`
		Message *string `json:"message" validate:"omitempty,notblank"`
	}
)

func (nn *NewNews) Clean() {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
}

type (
	Repository interface {
		CreateNews(ctx context.Context, n News) (News, error)
		GetNews(ctx context.Context, id string) (News, error)
		// QueryNews returns the newest first.
		QueryNews(ctx context.Context) ([]News, error)
		UpdateNews(ctx context.Context, n News) (News, error)
		DeleteNews(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, adminID string, nn NewNews) (News, error)
		Query(ctx context.Context) ([]News, error)
		Update(ctx context.Context, id string, un UpdateNews) (News, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, adminID string, nn NewNews) (News, error) {
	nn.Clean()
	now := time.Now().UTC()
	n, err := svc.repo.CreateNews(ctx, News{
		Title:     nn.Title,
		Message:   nn.Message,
		CreatedBy: adminID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return n, errors.Wrap(err, "creating news")
}

func (svc *service) Query(ctx context.Context) ([]News, error) {
	return svc.repo.QueryNews(ctx)
}

func (svc *service) Update(ctx context.Context, id string, un UpdateNews) (News, error) {
	n, err := svc.repo.GetNews(ctx, id)
	if err != nil {
		return News{}, err
	}
	if un.Title != nil {
		n.Title = core.CleanString(*un.Title)
	}
	if un.Message != nil {
		n.Message = core.CleanString(*un.Message)
	}
	n.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateNews(ctx, n)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteNews(ctx, id)
}
