package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	apperrors "recipeapi/internal/errors"
	"recipeapi/internal/metrics"
	"recipeapi/internal/model"
	"recipeapi/internal/repository"
)

// Label kinds, also used as metric labels.
const (
	KindTag        = "tag"
	KindIngredient = "ingredient"
)

// LabelService manages a user's tags or ingredients directly.
type LabelService interface {
	List(ctx context.Context, ownerID uint, assignedOnly bool) ([]model.Label, error)
	Create(ctx context.Context, ownerID uint, name string) (*model.Label, error)
	Rename(ctx context.Context, ownerID, id uint, name string) (*model.Label, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

type labelService struct {
	kind string
	repo func() repository.LabelRepository
}

// NewTagService returns the LabelService for tags.
func NewTagService(store repository.Store) LabelService {
	return &labelService{kind: KindTag, repo: store.Tags}
}

// NewIngredientService returns the LabelService for ingredients.
func NewIngredientService(store repository.Store) LabelService {
	return &labelService{kind: KindIngredient, repo: store.Ingredients}
}

func (s *labelService) List(ctx context.Context, ownerID uint, assignedOnly bool) ([]model.Label, error) {
	labels, err := s.repo().List(ctx, ownerID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", s.kind, err)
	}
	return labels, nil
}

func (s *labelService) Create(ctx context.Context, ownerID uint, name string) (*model.Label, error) {
	ve := &apperrors.ValidationError{}
	checkName(ve, "name", name)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	label, err := s.repo().Create(ctx, ownerID, name)
	if err != nil {
		return nil, s.translate(err)
	}
	metrics.LabelsCreated.WithLabelValues(s.kind, "direct").Inc()
	slog.DebugContext(ctx, s.kind+" created", slog.Uint64("id", uint64(label.ID)), slog.Uint64("user_id", uint64(ownerID)))
	return label, nil
}

func (s *labelService) Rename(ctx context.Context, ownerID, id uint, name string) (*model.Label, error) {
	ve := &apperrors.ValidationError{}
	checkName(ve, "name", name)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	label, err := s.repo().Rename(ctx, ownerID, id, name)
	if err != nil {
		return nil, s.translate(err)
	}
	return label, nil
}

func (s *labelService) Delete(ctx context.Context, ownerID, id uint) error {
	return s.repo().Delete(ctx, ownerID, id)
}

func (s *labelService) translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.NewValidationError("name", s.kind+" with this name already exists.")
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return fmt.Errorf("save %s: %w", s.kind, err)
}
