package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

var (
	userColumns = []string{
		"id", "name", "email", "role", "status", "branch", "year", "designation",
		"password_hash", "created_at", "updated_at", "last_login",
	}
	userOrderings = map[string]string{
		"name":       "name",
		"email":      "email",
		"role":       "role",
		"year":       "year",
		"created_at": "created_at",
	}
)

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	Status       string    `db:"status"`
	Branch       string    `db:"branch"`
	Year         int       `db:"year"`
	Designation  string    `db:"designation"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         user.Role(r.Role),
		Status:       user.Status(r.Status),
		Branch:       r.Branch,
		Year:         r.Year,
		Designation:  r.Designation,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    r.LastLogin.Time.UTC(),
	}
}

func lastLogin(usr user.User) null.Time {
	return null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero())
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	qs := psql.Select("COUNT(*)").From("users").Where("LOWER(email) = LOWER(?)", email)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		qs = qs.Where(sq.NotEq{"id": ids})
	}
	q, args, err := qs.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var count int
	if err = repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "counting users by email")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = newID()
	q, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(
			usr.ID, usr.Name, usr.Email, usr.Role, usr.Status, usr.Branch, usr.Year, usr.Designation,
			usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, lastLogin(usr),
		).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) getUser(ctx context.Context, where sq.Sqlizer) (user.User, error) {
	q, args, err := psql.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isMissing(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"id": id})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, sq.Expr("LOWER(email) = LOWER(?)", email))
}

func applyUserFilter(qs sq.SelectBuilder, filter user.QueryFilter) sq.SelectBuilder {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		qs = qs.Where(sq.Or{sq.ILike{"name": pattern}, sq.ILike{"email": pattern}})
	}
	if len(filter.IDs) > 0 {
		qs = qs.Where(sq.Eq{"id": filter.IDs})
	}
	if filter.Role != "" {
		qs = qs.Where(sq.Eq{"role": filter.Role})
	}
	if filter.Status != "" {
		qs = qs.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Branch != "" {
		qs = qs.Where(sq.Eq{"branch": filter.Branch})
	}
	if filter.Year != 0 {
		qs = qs.Where(sq.Eq{"year": filter.Year})
	}
	if filter.Designation != "" {
		qs = qs.Where(sq.Eq{"designation": filter.Designation})
	}
	return qs
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	orderBy := core.OrderingClauses(ordering, userOrderings)
	if len(orderBy) == 0 {
		orderBy = []string{"name ASC"}
	}
	q, args, err := applyUserFilter(psql.Select(userColumns...).From("users"), filter).
		OrderBy(append(orderBy, "id ASC")...).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) CountUsers(ctx context.Context, filter user.QueryFilter) (int, error) {
	q, args, err := applyUserFilter(psql.Select("COUNT(*)").From("users"), filter).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var count int
	err = repo.db.GetContext(ctx, &count, q, args...)
	return count, errors.Wrap(err, "counting users")
}

// UpdateUser saves everything but the status, which only changes through TransitionStatus.
func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q, args, err := psql.Update("users").
		SetMap(map[string]interface{}{
			"name":          usr.Name,
			"email":         usr.Email,
			"role":          usr.Role,
			"branch":        usr.Branch,
			"year":          usr.Year,
			"designation":   usr.Designation,
			"password_hash": usr.PasswordHash,
			"updated_at":    usr.UpdatedAt,
			"last_login":    lastLogin(usr),
		}).
		Where(sq.Eq{"id": usr.ID}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}

	var row userRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		switch {
		case isMissing(err):
			return user.User{}, user.ErrNotFound
		case isUniqueViolation(err):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) TransitionStatus(ctx context.Context, id string, from, to user.Status, updatedAt time.Time) (user.User, error) {
	q, args, err := psql.Update("users").
		Set("status", to).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id, "status": from}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}

	var row userRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if !isMissing(err) {
			return user.User{}, errors.Wrap(err, "updating user status")
		}
		// tell a missing user from one whose status moved
		if _, err = repo.GetUserByID(ctx, id); err != nil {
			return user.User{}, err
		}
		return user.User{}, user.ErrStatusChanged
	}
	return row.toUser(), nil
}
