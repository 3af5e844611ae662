package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub-app/taskhub-be/internal/apperror"
	"github.com/taskhub-app/taskhub-be/internal/auth"
	"github.com/taskhub-app/taskhub-be/internal/models"
)

// UserUpdate carries a partial profile update. Nil fields are left
// untouched.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	SignUp(name, email, password string, age *int) (models.User, string, error)
	Login(email, password string) (models.User, string, error)
	GetUserByID(id string) (models.User, error)
	UpdateUser(id string, upd UserUpdate) (models.User, error)
	DeleteUser(id string) (models.User, error)
	SetAvatar(id string, data []byte, mime string) error
	GetAvatar(id string) ([]byte, string, error)
	DeleteAvatar(id string) error
}

// UserService provides business logic for user management.
type UserService struct {
	db       *sql.DB
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	sessions SessionServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, hasher *auth.PasswordHasher, tokens *auth.TokenService, sessions SessionServiceProvider) *UserService {
	return &UserService{db: db, hasher: hasher, tokens: tokens, sessions: sessions}
}

// SignUp creates a new user and logs them straight in: the returned token
// is already appended to the new user's session set.
func (s *UserService) SignUp(name, email, password string, age *int) (models.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, "", apperror.Validation("name", "name must not be empty")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return models.User{}, "", err
	}
	if err := validatePassword(password); err != nil {
		return models.User{}, "", err
	}
	if age != nil && *age < 0 {
		return models.User{}, "", apperror.Validation("age", "age must not be negative")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, "", apperror.Validation("password", err.Error())
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		Age:          age,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.Exec(
		"INSERT INTO users (id, name, email, password_hash, age, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, nullableInt(user.Age), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, "", apperror.DuplicateEmail(email)
		}
		return models.User{}, "", apperror.Unavailable(err)
	}

	token, err := s.issueSession(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a fresh token. Unknown email and
// wrong password are indistinguishable to the caller, and neither touches
// the session set.
func (s *UserService) Login(email, password string) (models.User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.User{}, "", apperror.Unauthenticated()
	}

	user, err := s.getUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return models.User{}, "", apperror.Unauthenticated()
		}
		return models.User{}, "", err
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return models.User{}, "", apperror.Unauthenticated()
	}

	token, err := s.issueSession(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	var age sql.NullInt64
	row := s.db.QueryRow("SELECT id, name, email, password_hash, age, created_at, updated_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &age, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, apperror.NotFound("user")
	}
	if err != nil {
		return models.User{}, apperror.Unavailable(err)
	}
	if age.Valid {
		a := int(age.Int64)
		user.Age = &a
	}
	return user, nil
}

// UpdateUser applies a partial profile update. A password change re-hashes
// before anything is persisted; the plaintext never reaches the database.
func (s *UserService) UpdateUser(id string, upd UserUpdate) (models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return models.User{}, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return models.User{}, apperror.Validation("name", "name must not be empty")
		}
		user.Name = name
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return models.User{}, err
		}
		user.Email = email
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return models.User{}, err
		}
		digest, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return models.User{}, apperror.Validation("password", err.Error())
		}
		user.PasswordHash = digest
	}
	if upd.Age != nil {
		if *upd.Age < 0 {
			return models.User{}, apperror.Validation("age", "age must not be negative")
		}
		user.Age = upd.Age
	}

	user.UpdatedAt = time.Now().UTC()
	_, err = s.db.Exec(
		"UPDATE users SET name = ?, email = ?, password_hash = ?, age = ?, updated_at = ? WHERE id = ?",
		user.Name, user.Email, user.PasswordHash, nullableInt(user.Age), user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperror.DuplicateEmail(user.Email)
		}
		return models.User{}, apperror.Unavailable(err)
	}
	return user, nil
}

// DeleteUser removes a user and, via the foreign-key cascade, every
// session they ever opened. All their tokens stop authenticating at once.
func (s *UserService) DeleteUser(id string) (models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.db.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return models.User{}, apperror.Unavailable(err)
	}
	return user, nil
}

// SetAvatar stores the avatar image for a user. Size and format checks
// happen at the HTTP boundary; this only persists.
func (s *UserService) SetAvatar(id string, data []byte, mime string) error {
	res, err := s.db.Exec("UPDATE users SET avatar = ?, avatar_mime = ?, updated_at = ? WHERE id = ?",
		data, mime, time.Now().UTC(), id)
	if err != nil {
		return apperror.Unavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user")
	}
	return nil
}

// GetAvatar returns the stored avatar bytes and their mime type.
func (s *UserService) GetAvatar(id string) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := s.db.QueryRow("SELECT avatar, avatar_mime FROM users WHERE id = ?", id).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", apperror.NotFound("user")
	}
	if err != nil {
		return nil, "", apperror.Unavailable(err)
	}
	if len(data) == 0 || !mime.Valid {
		return nil, "", apperror.NotFound("avatar")
	}
	return data, mime.String, nil
}

// DeleteAvatar clears the stored avatar.
func (s *UserService) DeleteAvatar(id string) error {
	res, err := s.db.Exec("UPDATE users SET avatar = NULL, avatar_mime = NULL, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id)
	if err != nil {
		return apperror.Unavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user")
	}
	return nil
}

// getUserByEmail retrieves a single user by their normalized email,
// including the password hash.
func (s *UserService) getUserByEmail(email string) (models.User, error) {
	var user models.User
	var age sql.NullInt64
	row := s.db.QueryRow("SELECT id, name, email, password_hash, age, created_at, updated_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &age, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, apperror.NotFound("user")
	}
	if err != nil {
		return models.User{}, apperror.Unavailable(err)
	}
	if age.Valid {
		a := int(age.Int64)
		user.Age = &a
	}
	return user, nil
}

// issueSession mints a token and appends it to the user's session set.
func (s *UserService) issueSession(userID string) (string, error) {
	token, expiresAt, err := s.tokens.Issue(userID)
	if err != nil {
		return "", apperror.Unavailable(err)
	}
	if err := s.sessions.Append(userID, token, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

// normalizeEmail trims and lower-cases an email address and checks its
// shape. Normalizing on every write path is what makes the UNIQUE
// constraint mean "same address", not "same spelling".
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", apperror.Validation("email", "email is invalid")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < 7 {
		return apperror.Validation("password", "password must be at least 7 characters")
	}
	if strings.Contains(strings.ToLower(password), "password") {
		return apperror.Validation("password", `password must not contain "password"`)
	}
	return nil
}

// isUniqueViolation reports whether err is the SQLite UNIQUE constraint
// failure on users.email.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: users.email")
}

// nullableInt converts an optional int into a driver-friendly value.
func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
