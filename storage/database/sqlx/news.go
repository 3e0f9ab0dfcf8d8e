package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core/news"
)

var newsColumns = []string{"id", "title", "message", "created_by", "created_at", "updated_at"}

type newsRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Message   string      `db:"message"`
	CreatedBy null.String `db:"created_by"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r newsRow) toNews() news.News {
	return news.News{
		ID:        r.ID,
		Title:     r.Title,
		Message:   r.Message,
		CreatedBy: r.CreatedBy.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type newsRepository struct {
	db *sqlx.DB
}

var _ news.Repository = (*newsRepository)(nil)

func NewNewsRepository(db *sqlx.DB) news.Repository {
	return &newsRepository{db: db}
}

func (repo *newsRepository) CreateNews(ctx context.Context, n news.News) (news.News, error) {
	n.ID = newID()
	q, args, err := psql.Insert("news").
		Columns(newsColumns...).
		Values(n.ID, n.Title, n.Message, nullString(n.CreatedBy), n.CreatedAt, n.UpdatedAt).
		ToSql()
	if err != nil {
		return news.News{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return news.News{}, errors.Wrap(err, "inserting news")
	}
	return n, nil
}

func (repo *newsRepository) GetNews(ctx context.Context, id string) (news.News, error) {
	q, args, err := psql.Select(newsColumns...).From("news").Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return news.News{}, errors.Wrap(err, "building query")
	}
	var row newsRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isMissing(err) {
			return news.News{}, news.ErrNotFound
		}
		return news.News{}, errors.Wrap(err, "selecting news")
	}
	return row.toNews(), nil
}

func (repo *newsRepository) QueryNews(ctx context.Context) ([]news.News, error) {
	q, args, err := psql.Select(newsColumns...).From("news").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []newsRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting news")
	}
	items := make([]news.News, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toNews())
	}
	return items, nil
}

func (repo *newsRepository) UpdateNews(ctx context.Context, n news.News) (news.News, error) {
	q, args, err := psql.Update("news").
		Set("title", n.Title).
		Set("message", n.Message).
		Set("updated_at", n.UpdatedAt).
		Where(sq.Eq{"id": n.ID}).
		Suffix("RETURNING " + joinColumns(newsColumns)).
		ToSql()
	if err != nil {
		return news.News{}, errors.Wrap(err, "building query")
	}
	var row newsRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isMissing(err) {
			return news.News{}, news.ErrNotFound
		}
		return news.News{}, errors.Wrap(err, "updating news")
	}
	return row.toNews(), nil
}

func (repo *newsRepository) DeleteNews(ctx context.Context, id string) error {
	q, args, err := psql.Delete("news").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isMissing(err) {
			return news.ErrNotFound
		}
		return errors.Wrap(err, "deleting news")
	}
	return checkAffected(res, news.ErrNotFound)
}
