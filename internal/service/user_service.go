package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"recipeapi/internal/cache"
	apperrors "recipeapi/internal/errors"
	"recipeapi/internal/model"
	"recipeapi/internal/repository"
)

const (
	userCacheTTL = 5 * time.Minute
	bcryptCost   = 10
)

// CreateUserInput holds the fields accepted at signup.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
}

// ProfileUpdate holds the fields a user may change on their own profile.
type ProfileUpdate struct {
	Email    Optional[string] `json:"email"`
	Name     Optional[string] `json:"name"`
	Password Optional[string] `json:"password"`
}

// UserService exposes user account operations.
type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error)
	CreateSuperuser(ctx context.Context, in CreateUserInput) (*model.User, error)
	// GetUser returns the user by id. Results are cached and never carry the password hash.
	GetUser(ctx context.Context, id uint) (*model.User, error)
	UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	return s.create(ctx, in, false)
}

func (s *userService) CreateSuperuser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	return s.create(ctx, in, true)
}

func (s *userService) create(ctx context.Context, in CreateUserInput, superuser bool) (*model.User, error) {
	email := model.NormalizeEmail(in.Email)

	ve := &apperrors.ValidationError{}
	checkEmail(ve, email)
	checkPassword(ve, in.Password)
	checkName(ve, "name", in.Name)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, errEmailTaken()
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         in.Name,
		PasswordHash: string(hashed),
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errEmailTaken()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user created", slog.Uint64("user_id", uint64(user.ID)), slog.Bool("superuser", superuser))
	return user, nil
}

func errEmailTaken() error {
	return apperrors.NewValidationError("email", "user with this email already exists.")
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, userCacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, userCacheKey(id), payload, userCacheTTL)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &apperrors.ValidationError{}
	if in.Email.Null {
		ve.Add("email", msgNull)
	} else if in.Email.Set {
		email := model.NormalizeEmail(in.Email.Value)
		checkEmail(ve, email)
		if email != user.Email && !ve.HasErrors() {
			if _, err := s.repo.FindByEmail(ctx, email); err == nil {
				ve.Add("email", "user with this email already exists.")
			} else if !errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("check user existence: %w", err)
			}
		}
		user.Email = email
	}
	if in.Name.Null {
		ve.Add("name", msgNull)
	} else if in.Name.Set {
		checkName(ve, "name", in.Name.Value)
		user.Name = in.Name.Value
	}
	if in.Password.Null {
		ve.Add("password", msgNull)
	} else if in.Password.Set {
		checkPassword(ve, in.Password.Value)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if in.Password.Set {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password.Value), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errEmailTaken()
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(id))
	return user, nil
}
