package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/user"
)

const userTable = `"user"`

var userColumns = []string{
	"id", "name", "username", "email", "is_active", "roles", "child_ids",
	"password_hash", "created_at", "updated_at", "last_login",
}

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	ChildIDs     pq.StringArray `db:"child_ids"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r *userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		ChildIDs:     r.ChildIDs,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	qb := psql.Select("username", "email").
		From(userTable).
		Where(sq.Or{
			sq.Eq{"lower(username)": strings.ToLower(username)},
			sq.Eq{"lower(email)": strings.ToLower(email)},
		})
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		qb = qb.Where(sq.NotEq{"id": ids})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err = repo.db.Select(&rows, query, args...); err != nil {
		return core.NewStorageError("checking user uniqueness", err)
	}
	for _, row := range rows {
		if strings.EqualFold(row.Username, username) {
			return user.ErrUsernameExists
		}
		if strings.EqualFold(row.Email, email) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}

	query, args, err := psql.Insert(userTable).
		Columns(userColumns...).
		Values(
			usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive,
			pq.StringArray(usr.Roles), pq.StringArray(usr.ChildIDs), usr.PasswordHash,
			usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user insert")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return user.User{}, core.NewStorageError("inserting user", err)
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers() ([]user.User, error) {
	return repo.selectUsers(psql.Select(userColumns...).From(userTable).OrderBy("created_at DESC", "id ASC"))
}

func (repo userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(sq.Eq{"id": id}, "getting user by id")
}

func (repo userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.getUser(sq.Eq{"lower(username)": strings.ToLower(username)}, "getting user by username")
}

func (repo userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(sq.Eq{"lower(email)": strings.ToLower(email)}, "getting user by email")
}

func (repo userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	uname := strings.ToLower(username)
	return repo.getUser(sq.Or{
		sq.Eq{"lower(username)": uname},
		sq.Eq{"lower(email)": uname},
	}, "getting user by username or email")
}

func (repo userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	qb := psql.Select(userColumns...).From(userTable)
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		qb = qb.Where(sq.Or{
			sq.Like{"lower(name)": pattern},
			sq.Like{"lower(username)": pattern},
			sq.Like{"lower(email)": pattern},
		})
	}
	if len(filter.Roles) > 0 {
		// overlap: any of the requested roles
		qb = qb.Where("roles && ?", pq.StringArray(filter.Roles))
	}
	if filter.IsActive != nil {
		qb = qb.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	if !filter.CreatedFrom.IsZero() {
		qb = qb.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
	}
	if !filter.CreatedTo.IsZero() {
		qb = qb.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
	}
	return repo.selectUsers(qb.OrderBy("created_at DESC", "id ASC"))
}

func (repo userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	qb := psql.Update(userTable).Where(sq.Eq{"id": usr.ID})
	if usr.Name != "" {
		qb = qb.Set("name", usr.Name)
	}
	if usr.Username != "" {
		qb = qb.Set("username", usr.Username)
	}
	if usr.Email != "" {
		qb = qb.Set("email", usr.Email)
	}
	if isActive != nil {
		qb = qb.Set("is_active", *isActive)
	}
	if usr.Roles != nil {
		qb = qb.Set("roles", pq.StringArray(usr.Roles))
	}
	if usr.ChildIDs != nil {
		qb = qb.Set("child_ids", pq.StringArray(usr.ChildIDs))
	}
	if usr.PasswordHash != nil {
		qb = qb.Set("password_hash", usr.PasswordHash)
	}
	if !usr.UpdatedAt.IsZero() {
		qb = qb.Set("updated_at", usr.UpdatedAt.UTC())
	}
	if !usr.LastLogin.IsZero() {
		qb = qb.Set("last_login", usr.LastLogin.UTC())
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user update")
	}
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return user.User{}, core.NewStorageError("updating user", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo userRepository) DeleteUsersByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete(userTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building user delete")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return core.NewStorageError("deleting users", err)
	}
	return nil
}

func (repo userRepository) getUser(pred interface{}, msg string) (user.User, error) {
	query, args, err := psql.Select(userColumns...).From(userTable).Where(pred).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, msg)
	}
	var row userRow
	if err = repo.db.Get(&row, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, msg)
	}
	return row.toUser(), nil
}

func (repo userRepository) selectUsers(qb sq.SelectBuilder) ([]user.User, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building user query")
	}
	var rows []userRow
	if err = repo.db.Select(&rows, query, args...); err != nil {
		return nil, core.NewStorageError("querying users", err)
	}
	users := make([]user.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toUser())
	}
	return users, nil
}
