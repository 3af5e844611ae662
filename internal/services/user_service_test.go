package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskhub-app/taskhub-be/internal/apperror"
	"github.com/taskhub-app/taskhub-be/internal/auth"
	"github.com/taskhub-app/taskhub-be/internal/database"
	"golang.org/x/crypto/bcrypt"
)

type userTestEnv struct {
	db       *sql.DB
	users    *UserService
	sessions *SessionService
	tokens   *auth.TokenService
}

func newUserTestEnv(t *testing.T) *userTestEnv {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	sessions := NewSessionService(db, 0)
	users := NewUserService(db, auth.NewPasswordHasherWithCost(bcrypt.MinCost), tokens, sessions)
	return &userTestEnv{db: db, users: users, sessions: sessions, tokens: tokens}
}

func (e *userTestEnv) sessionCount(t *testing.T, userID string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE user_id = ?", userID).Scan(&n))
	return n
}

func TestSignUp_StoresDigestNotPlaintext(t *testing.T) {
	env := newUserTestEnv(t)

	user, token, err := env.users.SignUp("Michał", "a@b.com", "Piesek1234!", nil)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "Michał", user.Name)
	require.Equal(t, "a@b.com", user.Email)
	require.NotEqual(t, "Piesek1234!", user.PasswordHash)

	var stored string
	require.NoError(t, env.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&stored))
	require.NotEqual(t, "Piesek1234!", stored)

	// The signup token verifies back to the new user's id and is listed
	// in their session set.
	gotID, err := env.tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, gotID)

	active, err := env.sessions.IsActive(user.ID, token)
	require.NoError(t, err)
	require.True(t, active)
}

func TestSignUp_NormalizesEmail(t *testing.T) {
	env := newUserTestEnv(t)

	user, _, err := env.users.SignUp("Michał", "  A@B.com ", "Piesek1234!", nil)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", user.Email)

	// Same address spelled differently must hit the uniqueness constraint.
	_, _, err = env.users.SignUp("Other", "a@B.COM", "Piesek1234!", nil)
	require.ErrorIs(t, err, apperror.ErrDuplicateEmail)
}

func TestSignUp_Validation(t *testing.T) {
	env := newUserTestEnv(t)
	negative := -1

	cases := []struct {
		name     string
		userName string
		email    string
		password string
		age      *int
	}{
		{"empty name", "  ", "x@y.com", "Piesek1234!", nil},
		{"email without at sign", "X", "not-an-email", "Piesek1234!", nil},
		{"short password", "X", "x@y.com", "abc", nil},
		{"password containing password", "X", "x@y.com", "Password123", nil},
		{"negative age", "X", "x@y.com", "Piesek1234!", &negative},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.users.SignUp(tc.userName, tc.email, tc.password, tc.age)
			require.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestLogin_IssuesDistinctToken(t *testing.T) {
	env := newUserTestEnv(t)

	_, signupToken, err := env.users.SignUp("Michał", "a@b.com", "Piesek1234!", nil)
	require.NoError(t, err)

	user, loginToken, err := env.users.Login("a@b.com", "Piesek1234!")
	require.NoError(t, err)
	require.NotEqual(t, signupToken, loginToken)
	require.Equal(t, 2, env.sessionCount(t, user.ID))
}

func TestLogin_WrongPasswordLeavesSessionsUntouched(t *testing.T) {
	env := newUserTestEnv(t)

	user, _, err := env.users.SignUp("Michał", "a@b.com", "Piesek1234!", nil)
	require.NoError(t, err)

	_, _, err = env.users.Login("a@b.com", "wrong-password")
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)
	require.Equal(t, 1, env.sessionCount(t, user.ID))
}

func TestLogin_UnknownEmail(t *testing.T) {
	env := newUserTestEnv(t)

	_, _, err := env.users.Login("nobody@example.com", "whatever1!")
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestUpdateUser_PasswordChangeRehashes(t *testing.T) {
	env := newUserTestEnv(t)

	user, _, err := env.users.SignUp("Michał", "a@b.com", "Piesek1234!", nil)
	require.NoError(t, err)

	newPassword := "Jamnik4321!"
	updated, err := env.users.UpdateUser(user.ID, UserUpdate{Password: &newPassword})
	require.NoError(t, err)
	require.NotEqual(t, newPassword, updated.PasswordHash)

	_, _, err = env.users.Login("a@b.com", "Piesek1234!")
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, _, err = env.users.Login("a@b.com", newPassword)
	require.NoError(t, err)
}

func TestUpdateUser_PartialFields(t *testing.T) {
	env := newUserTestEnv(t)

	user, _, err := env.users.SignUp("Michał", "a@b.com", "Piesek1234!", nil)
	require.NoError(t, err)

	name := "Pies"
	age := 12
	updated, err := env.users.UpdateUser(user.ID, UserUpdate{Name: &name, Age: &age})
	require.NoError(t, err)
	require.Equal(t, "Pies", updated.Name)
	require.NotNil(t, updated.Age)
	require.Equal(t, 12, *updated.Age)
	require.Equal(t, "a@b.com", updated.Email, "untouched fields must survive")
}

func TestUpdateUser_DuplicateEmail(t *testing.T) {
	env := newUserTestEnv(t)

	_, _, err := env.users.SignUp("A", "a@b.com", "Piesek1234!", nil)
	require.NoError(t, err)
	user, _, err := env.users.SignUp("B", "b@b.com", "Piesek1234!", nil)
	require.NoError(t, err)

	taken := "a@b.com"
	_, err = env.users.UpdateUser(user.ID, UserUpdate{Email: &taken})
	require.ErrorIs(t, err, apperror.ErrDuplicateEmail)
}

func TestDeleteUser_RevokesEveryToken(t *testing.T) {
	env := newUserTestEnv(t)

	user, tok1, err := env.users.SignUp("Michał", "a@b.com", "Piesek1234!", nil)
	require.NoError(t, err)
	_, tok2, err := env.users.Login("a@b.com", "Piesek1234!")
	require.NoError(t, err)

	deleted, err := env.users.DeleteUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, deleted.ID)

	for _, tok := range []string{tok1, tok2} {
		active, err := env.sessions.IsActive(user.ID, tok)
		require.NoError(t, err)
		require.False(t, active)
	}

	_, err = env.users.GetUserByID(user.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAvatar_SetGetDelete(t *testing.T) {
	env := newUserTestEnv(t)

	user, _, err := env.users.SignUp("Michał", "a@b.com", "Piesek1234!", nil)
	require.NoError(t, err)

	_, _, err = env.users.GetAvatar(user.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound, "no avatar uploaded yet")

	blob := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	require.NoError(t, env.users.SetAvatar(user.ID, blob, "image/png"))

	data, mime, err := env.users.GetAvatar(user.ID)
	require.NoError(t, err)
	require.Equal(t, blob, data)
	require.Equal(t, "image/png", mime)

	require.NoError(t, env.users.DeleteAvatar(user.ID))
	_, _, err = env.users.GetAvatar(user.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
