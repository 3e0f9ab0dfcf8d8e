package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/campus/core/material"
)

type materialRepository struct {
	db *materialTable
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db.material}
}

func (repo *materialRepository) CreateMaterial(_ context.Context, m material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = newID()
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *materialRepository) GetMaterial(_ context.Context, id string) (material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.table[id]; ok {
		return *m, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) QueryMaterials(_ context.Context, filter material.Filter) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]material.Material, 0)
	for _, m := range repo.db.table {
		if filter.Branch != "" && m.Branch != filter.Branch {
			continue
		}
		if filter.Year != 0 && m.Year != filter.Year {
			continue
		}
		if filter.UploadedBy != "" && m.UploadedBy != filter.UploadedBy {
			continue
		}
		items = append(items, *m)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (repo *materialRepository) DeleteMaterial(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return material.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
