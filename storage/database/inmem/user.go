package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query(filter user.QueryFilter) []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		if filter.Match(*u) {
			users = append(users, *u)
		}
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if strings.EqualFold(usr.Email, email) && !isExcluded(*usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.table {
		if strings.EqualFold(u.Email, usr.Email) {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = newID()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if strings.EqualFold(usr.Email, email) {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query(filter)
	sortUsers(users, ordering)
	return users, nil
}

func (repo *userRepository) CountUsers(_ context.Context, filter user.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.query(filter)), nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origUsr, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	// status only changes through TransitionStatus
	usr.Status = origUsr.Status
	usr.CreatedAt = origUsr.CreatedAt
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) TransitionStatus(_ context.Context, id string, from, to user.Status, updatedAt time.Time) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Status != from {
		return user.User{}, user.ErrStatusChanged
	}
	usr.Status = to
	usr.UpdatedAt = updatedAt
	return *usr, nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

// sortUsers applies the orderings in turn. Unknown fields are ignored; the default is by name.
func sortUsers(users []user.User, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			cmp := compareUsers(users[i], users[j], strings.ToLower(ord.Field))
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return users[i].ID < users[j].ID
	})
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "role":
		return strings.Compare(string(a.Role), string(b.Role))
	case "year":
		return a.Year - b.Year
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}
