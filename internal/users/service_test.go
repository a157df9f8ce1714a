package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

type memoryRepo struct {
	users  map[int64]User
	emails map[string]int64
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User), emails: make(map[string]int64)}
}

func (r *memoryRepo) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) CountUsers(ctx context.Context) (int, error) {
	return len(r.users), nil
}

func (r *memoryRepo) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) InsertUser(ctx context.Context, u User) (User, error) {
	if _, exists := r.emails[u.Email]; exists {
		return User{}, shared.ErrAlreadyExists
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	r.emails[u.Email] = u.ID
	return u, nil
}

func (r *memoryRepo) UpdateUser(ctx context.Context, u User) (User, error) {
	old, ok := r.users[u.ID]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	if other, exists := r.emails[u.Email]; exists && other != u.ID {
		return User{}, shared.ErrAlreadyExists
	}
	delete(r.emails, old.Email)
	r.users[u.ID] = u
	r.emails[u.Email] = u.ID
	return u, nil
}

func (r *memoryRepo) DeleteUser(ctx context.Context, id int64) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(r.emails, u.Email)
	delete(r.users, id)
	return nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateInput{Email: "Mario@Tavolo.IT", Name: "Mario", Role: "Cashier", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, "mario@tavolo.it", u.Email)
	require.Equal(t, "cashier", u.Role)
	require.True(t, u.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("supersecret")))
}

func TestCreateUserRejectsShortPassword(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.CreateUser(context.Background(), CreateInput{Email: "a@b.c", Name: "A", Role: "cashier", Password: "short"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateInput{Email: "dup@tavolo.it", Name: "One", Role: "cashier", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateInput{Email: "dup@tavolo.it", Name: "Two", Role: "cashier", Password: "password2"})
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestUpdateUserKeepsHashWhenPasswordEmpty(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateInput{Email: "keep@tavolo.it", Name: "Keep", Role: "cashier", Password: "password1"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, u.ID, UpdateInput{Email: u.Email, Name: "Renamed", Role: "manager", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, "manager", updated.Role)
	require.Equal(t, u.PasswordHash, updated.PasswordHash)
}

func TestUpdateMissingUser(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.UpdateUser(context.Background(), 42, UpdateInput{Email: "x@y.z", Name: "X", Role: "cashier"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateInput{Email: "gone@tavolo.it", Name: "Gone", Role: "cashier", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	require.ErrorIs(t, svc.DeleteUser(ctx, u.ID), shared.ErrNotFound)

	count, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}
