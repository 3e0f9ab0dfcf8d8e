package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/material"
)

var materialColumns = []string{"id", "title", "description", "file_url", "branch", "year", "uploaded_by", "created_at"}

type materialRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	FileURL     string    `db:"file_url"`
	Branch      string    `db:"branch"`
	Year        int       `db:"year"`
	UploadedBy  string    `db:"uploaded_by"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r materialRow) toMaterial() material.Material {
	return material.Material{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		FileURL:     r.FileURL,
		Branch:      r.Branch,
		Year:        r.Year,
		UploadedBy:  r.UploadedBy,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *sqlx.DB) material.Repository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	m.ID = newID()
	q, args, err := psql.Insert("materials").
		Columns(materialColumns...).
		Values(m.ID, m.Title, m.Description, m.FileURL, m.Branch, m.Year, m.UploadedBy, m.CreatedAt).
		ToSql()
	if err != nil {
		return material.Material{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return m, nil
}

func (repo *materialRepository) GetMaterial(ctx context.Context, id string) (material.Material, error) {
	q, args, err := psql.Select(materialColumns...).From("materials").Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return material.Material{}, errors.Wrap(err, "building query")
	}
	var row materialRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isMissing(err) {
			return material.Material{}, material.ErrNotFound
		}
		return material.Material{}, errors.Wrap(err, "selecting material")
	}
	return row.toMaterial(), nil
}

func (repo *materialRepository) QueryMaterials(ctx context.Context, filter material.Filter) ([]material.Material, error) {
	qs := psql.Select(materialColumns...).From("materials").OrderBy("created_at DESC")
	if filter.Branch != "" {
		qs = qs.Where(sq.Eq{"branch": filter.Branch})
	}
	if filter.Year != 0 {
		qs = qs.Where(sq.Eq{"year": filter.Year})
	}
	if filter.UploadedBy != "" {
		qs = qs.Where(sq.Eq{"uploaded_by": filter.UploadedBy})
	}
	q, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []materialRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		if isMissing(err) {
			return []material.Material{}, nil
		}
		return nil, errors.Wrap(err, "selecting materials")
	}
	items := make([]material.Material, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toMaterial())
	}
	return items, nil
}

func (repo *materialRepository) DeleteMaterial(ctx context.Context, id string) error {
	q, args, err := psql.Delete("materials").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isMissing(err) {
			return material.ErrNotFound
		}
		return errors.Wrap(err, "deleting material")
	}
	return checkAffected(res, material.ErrNotFound)
}
