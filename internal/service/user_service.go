package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"backend/internal/authz"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string   `json:"username" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Name     string   `json:"name" binding:"required"`
	Password string   `json:"password" binding:"required,min=6"`
	RoleIDs  []string `json:"role_ids"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

type SetUserRolesRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// MeResponse carries the user plus the aggregated permission map the client
// feeds into its hasPermission predicate
type MeResponse struct {
	User        UserResponse        `json:"user"`
	Permissions authz.PermissionSet `json:"permissions"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error)
	Logout(ctx context.Context, userID string) error
	Me(ctx context.Context, userID string) (*MeResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error)
	SetUserRoles(ctx context.Context, actorID, id string, req SetUserRolesRequest) (*UserResponse, error)
	DeactivateUser(ctx context.Context, actorID, id string) error
}

type userService struct {
	repo      repository.UserRepository
	auditRepo repository.AuditRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, auditRepo repository.AuditRepository) UserService {
	return &userService{repo: repo, auditRepo: auditRepo}
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Helper: parse model to standard json API response
func mapToUserResponse(user *model.User) *UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		IsActive:  user.IsActive,
		Roles:     roles,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error) {
	if !emailRegex.MatchString(req.Email) {
		return nil, errors.New("invalid email format")
	}

	// Double check username/email uniqueness via repo directly
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
		IsActive: true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if len(req.RoleIDs) > 0 {
		roleIDs, err := parseUUIDs(req.RoleIDs)
		if err != nil {
			return nil, err
		}
		if err := s.repo.SetRoles(ctx, user.ID, roleIDs); err != nil {
			return nil, err
		}
	}

	// Credentials never reach the audit table, only the identity fields
	s.logAudit(ctx, actorID, model.ActionCreateUser, user.ID.String(), user.Username, map[string]interface{}{
		"username": req.Username,
		"email":    req.Email,
		"name":     req.Name,
		"role_ids": req.RoleIDs,
	})
	return mapToUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenPairResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenPairResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	accessToken, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenPairResponse{AccessToken: accessToken, RefreshToken: refresh.Token}, nil
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, refreshToken)
		return nil, errors.New("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID.String())
	if err != nil || !user.IsActive {
		return nil, errors.New("invalid refresh token")
	}

	// Rotate: the old token is single-use
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes refresh tokens and drops the cached permission set so no
// state leaks into the next session.
func (s *userService) Logout(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return errors.New("invalid user id")
	}
	middleware.ClearPermissionCache(userID)
	return s.repo.DeleteUserRefreshTokens(ctx, id)
}

func (s *userService) Me(ctx context.Context, userID string) (*MeResponse, error) {
	user, err := s.repo.GetByIDWithRoles(ctx, userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	set := authz.PermissionSet{}
	if user.IsActive {
		set = authz.BuildSet(user.Roles)
	}

	return &MeResponse{
		User:        *mapToUserResponse(user),
		Permissions: set,
	}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByIDWithRoles(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapToUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToUserResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, errors.New("username already exists")
		}
		user.Username = req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		if !emailRegex.MatchString(req.Email) {
			return nil, errors.New("invalid email format")
		}
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, errors.New("email already exists")
		}
		user.Email = req.Email
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	middleware.ClearPermissionCache(id)
	s.logAudit(ctx, actorID, model.ActionUpdateUser, user.ID.String(), user.Username, req)
	return mapToUserResponse(user), nil
}

func (s *userService) SetUserRoles(ctx context.Context, actorID, id string, req SetUserRolesRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	roleIDs, err := parseUUIDs(req.RoleIDs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRoles(ctx, user.ID, roleIDs); err != nil {
		return nil, err
	}

	// Grants changed, cached set is stale
	middleware.ClearPermissionCache(id)
	s.logAudit(ctx, actorID, model.ActionAssignUserRoles, id, user.Username, req)

	updated, err := s.repo.GetByIDWithRoles(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToUserResponse(updated), nil
}

// DeactivateUser disables the account instead of removing it
func (s *userService) DeactivateUser(ctx context.Context, actorID, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("user not found")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	_ = s.repo.DeleteUserRefreshTokens(ctx, user.ID)
	middleware.ClearPermissionCache(id)
	s.logAudit(ctx, actorID, model.ActionDeleteUser, id, user.Username, nil)
	return nil
}

func (s *userService) logAudit(ctx context.Context, actorID, action, entityID, entityName string, payload interface{}) {
	if s.auditRepo == nil {
		return
	}
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if actor, err := uuid.Parse(actorID); err == nil {
		entry.UserID = &actor
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			entry.Details = string(raw)
		}
	}
	_ = s.auditRepo.Log(ctx, entry)
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, errors.New("invalid uuid: " + v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
