package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type userRepository struct {
	q Querier
}

func (r *userRepository) CreateIfAbsent(ctx context.Context, u *User) (bool, error) {
	if u == nil {
		return false, fmt.Errorf("create user: user is nil")
	}
	if u.Email == "" || u.PasswordHash == "" {
		return false, fmt.Errorf("create user: email and password hash are required")
	}

	result, err := r.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO users(
			email, password, first_name, last_name, phone, date_of_birth, address, city, state, zip,
			country, profile_pic, security_score, two_factor_enabled, biometric_enabled, is_verified, is_active
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, 'USA'), ?, ?, ?, ?, ?, ?)
	`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName,
		nullString(u.Phone), nullString(u.DateOfBirth), nullString(u.Address),
		nullString(u.City), nullString(u.State), nullString(u.Zip), nullString(u.Country),
		nullString(u.ProfilePic), u.SecurityScore,
		boolToInt(u.TwoFactorEnabled), boolToInt(u.BiometricEnabled), boolToInt(u.IsVerified), boolToInt(u.IsActive),
	)
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create user: rows affected: %w", err)
	}

	if affected == 0 {
		existing, err := r.GetByEmail(ctx, u.Email)
		if err != nil {
			return false, fmt.Errorf("create user: load existing: %w", err)
		}
		u.ID = existing.ID
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("create user: last insert id: %w", err)
	}
	u.ID = id
	return true, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var (
		u                                                          User
		phone, dob, address, city, state, zip, country, profilePic sql.NullString
	)
	err := queryOne(ctx, r.q, func(rows *sql.Rows) error {
		return rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&phone, &dob, &address, &city, &state, &zip, &country, &profilePic,
			&u.SecurityScore, &u.TwoFactorEnabled, &u.BiometricEnabled, &u.IsVerified, &u.IsActive,
		)
	}, `
		SELECT id, email, password, first_name, last_name,
			phone, date_of_birth, address, city, state, zip, country, profile_pic,
			COALESCE(security_score, 0), COALESCE(two_factor_enabled, 0), COALESCE(biometric_enabled, 0),
			COALESCE(is_verified, 0), COALESCE(is_active, 0)
		FROM users
		WHERE email = ?
	`, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %q: %w", email, err)
	}

	u.Phone = phone.String
	u.DateOfBirth = dob.String
	u.Address = address.String
	u.City = city.String
	u.State = state.String
	u.Zip = zip.String
	u.Country = country.String
	u.ProfilePic = profilePic.String
	return &u, nil
}
