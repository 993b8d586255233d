package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// memAccountRepo covers the account-creation path; the rest of the interface
// stays unused
type memAccountRepo struct {
	repository.UserRepository
	byID map[uuid.UUID]*model.User
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{byID: map[uuid.UUID]*model.User{}}
}

func (r *memAccountRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAccountRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAccountRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	copied := *user
	r.byID[user.ID] = &copied
	return nil
}

func (r *memAccountRepo) SetRoles(_ context.Context, _ uuid.UUID, _ []uuid.UUID) error {
	return nil
}

// captureAuditRepo records every entry passed to Log
type captureAuditRepo struct {
	entries []model.AuditLog
}

func (r *captureAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *captureAuditRepo) List(_ context.Context, _ string, _, _ int) ([]model.AuditLog, int64, error) {
	return nil, 0, nil
}

func TestCreateUserAuditNeverStoresPassword(t *testing.T) {
	repo := newMemAccountRepo()
	audits := &captureAuditRepo{}
	svc := NewUserService(repo, audits)

	resp, err := svc.CreateUser(context.Background(), uuid.NewString(), CreateUserRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Name:     "J Doe",
		Password: "hunter2secret",
	})
	require.NoError(t, err)
	require.Len(t, audits.entries, 1)

	details := audits.entries[0].Details
	assert.NotContains(t, details, "hunter2secret")
	assert.NotContains(t, details, "password")
	assert.Contains(t, details, "jdoe")
	assert.Contains(t, details, "jdoe@example.com")
	assert.Equal(t, model.ActionCreateUser, audits.entries[0].Action)
	assert.Equal(t, "jdoe", resp.Username)
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMemAccountRepo()
	svc := NewUserService(repo, nil)

	resp, err := svc.CreateUser(context.Background(), uuid.NewString(), CreateUserRequest{
		Username: "asmith",
		Email:    "asmith@example.com",
		Name:     "A Smith",
		Password: "correct horse",
	})
	require.NoError(t, err)

	stored := repo.byID[resp.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct horse", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("correct horse")))
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	repo := newMemAccountRepo()
	svc := NewUserService(repo, nil)

	_, err := svc.CreateUser(context.Background(), uuid.NewString(), CreateUserRequest{
		Username: "jdoe", Email: "jdoe@example.com", Name: "J Doe", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), uuid.NewString(), CreateUserRequest{
		Username: "jdoe", Email: "other@example.com", Name: "Other", Password: "secret123",
	})
	assert.EqualError(t, err, "username already exists")
}
