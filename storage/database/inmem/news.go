package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/campus/core/news"
)

type newsRepository struct {
	db *newsTable
}

var _ news.Repository = (*newsRepository)(nil)

func NewNewsRepository(db *DB) news.Repository {
	return &newsRepository{db: db.news}
}

func (repo *newsRepository) CreateNews(_ context.Context, n news.News) (news.News, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = newID()
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *newsRepository) GetNews(_ context.Context, id string) (news.News, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return news.News{}, news.ErrNotFound
}

func (repo *newsRepository) QueryNews(_ context.Context) ([]news.News, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]news.News, 0, len(repo.db.table))
	for _, n := range repo.db.table {
		items = append(items, *n)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (repo *newsRepository) UpdateNews(_ context.Context, n news.News) (news.News, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[n.ID]
	if !ok {
		return news.News{}, news.ErrNotFound
	}
	n.CreatedAt = orig.CreatedAt
	n.CreatedBy = orig.CreatedBy
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *newsRepository) DeleteNews(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return news.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
