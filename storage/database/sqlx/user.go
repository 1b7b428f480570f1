package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	FullName     string         `db:"full_name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	Track        string         `db:"track"`
	AvatarURL    string         `db:"avatar_url"`
	Bio          string         `db:"bio"`
	Location     string         `db:"location"`
	IsActive     bool           `db:"is_active"`
	Roles        types.JSONText `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	JoinDate     time.Time      `db:"join_date"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    time.Time      `db:"last_login"`
}

func newUserRow(usr user.User) (userRow, error) {
	roles, err := json.Marshal(usr.Roles)
	if err != nil {
		return userRow{}, errors.Wrap(err, "encoding roles")
	}
	return userRow{
		ID:           usr.ID,
		FullName:     usr.FullName,
		Username:     usr.Username,
		Email:        usr.Email,
		Track:        usr.Track,
		AvatarURL:    usr.AvatarURL,
		Bio:          usr.Bio,
		Location:     usr.Location,
		IsActive:     usr.IsActive,
		Roles:        roles,
		PasswordHash: usr.PasswordHash,
		JoinDate:     usr.JoinDate,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    usr.LastLogin,
	}, nil
}

func (row userRow) toUser() (user.User, error) {
	var roles []string
	if len(row.Roles) > 0 {
		if err := json.Unmarshal(row.Roles, &roles); err != nil {
			return user.User{}, errors.Wrap(err, "decoding roles")
		}
	}
	return user.User{
		ID:           row.ID,
		FullName:     row.FullName,
		Username:     row.Username,
		Email:        row.Email,
		Track:        row.Track,
		AvatarURL:    row.AvatarURL,
		Bio:          row.Bio,
		Location:     row.Location,
		IsActive:     row.IsActive,
		Roles:        roles,
		PasswordHash: row.PasswordHash,
		JoinDate:     row.JoinDate,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin,
	}, nil
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excludedIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	check := func(column, value string, dupErr error) error {
		q := `SELECT COUNT(*) FROM "user" WHERE ` + column + ` = ?`
		args := []interface{}{value}
		if len(excludedIDs) > 0 {
			inQ, inArgs, err := sqlx.In(`id NOT IN (?)`, excludedIDs)
			if err != nil {
				return errors.Wrap(err, "building uniqueness query")
			}
			q += " AND " + inQ
			args = append(args, inArgs...)
		}

		var count int
		if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(q), args...); err != nil {
			return errors.Wrap(err, "checking uniqueness")
		}
		if count > 0 {
			return dupErr
		}
		return nil
	}

	if username != "" {
		if err := check("username", username, user.ErrUsernameExists); err != nil {
			return err
		}
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	row, err := newUserRow(usr)
	if err != nil {
		return user.User{}, err
	}

	q := `
	INSERT INTO "user" (id, full_name, username, email, track, avatar_url, bio, location,
	                    is_active, roles, password_hash, join_date, updated_at, last_login)
	VALUES (:id, :full_name, :username, :email, :track, :avatar_url, :bio, :location,
	        :is_active, :roles, :password_hash, :join_date, :updated_at, :last_login)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "user"`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return rowsToUsers(rows)
}

func (repo *userRepository) getUser(ctx context.Context, q string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser()
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM "user" WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM "user" WHERE username = $1`, username)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM "user" WHERE email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM "user" WHERE username = $1 OR email = $1`, username)
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	conds := []string{"TRUE"}
	args := make([]interface{}, 0)

	if filter.Search != "" {
		conds = append(conds, `(full_name ILIKE ? OR username ILIKE ? OR email ILIKE ?)`)
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}
	if len(filter.Roles) > 0 {
		// any overlap between the user's roles and the requested ones
		conds = append(conds, `EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(roles) AS role
			WHERE role = ANY(string_to_array(?, ','))
		)`)
		args = append(args, strings.Join(filter.Roles, ","))
	}
	if filter.IsActive != nil {
		conds = append(conds, `is_active = ?`)
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, `join_date >= ?`)
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, `join_date <= ?`)
		args = append(args, filter.CreatedTo)
	}

	q := `SELECT * FROM "user" WHERE ` + strings.Join(conds, " AND ")
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return rowsToUsers(rows)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	sets := []string{
		"full_name = ?", "username = ?", "email = ?", "track = ?", "avatar_url = ?",
		"bio = ?", "location = ?", "last_login = ?", "updated_at = ?",
	}
	args := []interface{}{
		usr.FullName, usr.Username, usr.Email, usr.Track, usr.AvatarURL,
		usr.Bio, usr.Location, usr.LastLogin, usr.UpdatedAt,
	}

	// only save set fields
	if usr.Roles != nil {
		roles, err := json.Marshal(usr.Roles)
		if err != nil {
			return user.User{}, errors.Wrap(err, "encoding roles")
		}
		sets = append(sets, "roles = ?")
		args = append(args, types.JSONText(roles))
	}
	if usr.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, usr.PasswordHash)
	}
	if isActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *isActive)
	}
	args = append(args, usr.ID)

	q := `UPDATE "user" SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

func rowsToUsers(rows []userRow) ([]user.User, error) {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		usr, err := row.toUser()
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}
