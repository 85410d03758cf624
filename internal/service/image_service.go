package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register WebP decoder

	apperrors "recipeapi/internal/errors"
	"recipeapi/internal/metrics"
	"recipeapi/internal/model"
	"recipeapi/internal/repository"
	"recipeapi/internal/storage"
)

// ImageKeyPrefix is where recipe images are stored.
const ImageKeyPrefix = "uploads/recipe/"

type imageFormat struct {
	ext         string
	contentType string
}

// formats maps image.Decode format names to the stored representation.
var formats = map[string]imageFormat{
	"jpeg": {ext: ".jpg", contentType: "image/jpeg"},
	"png":  {ext: ".png", contentType: "image/png"},
	"gif":  {ext: ".gif", contentType: "image/gif"},
	"webp": {ext: ".webp", contentType: "image/webp"},
}

// ImageService attaches uploaded images to recipes.
type ImageService interface {
	// Upload validates r as an image, stores it and records it on the recipe,
	// replacing any previous image.
	Upload(ctx context.Context, ownerID, recipeID uint, r io.Reader) (*model.Recipe, error)
	// URL returns the public address of a stored image reference.
	URL(ref string) string
}

type imageService struct {
	store    repository.Store
	files    storage.Store
	maxBytes int64
	newKey   func(ext string) string
}

// NewImageService creates an ImageService that accepts uploads up to maxBytes.
func NewImageService(store repository.Store, files storage.Store, maxBytes int64) ImageService {
	return &imageService{
		store:    store,
		files:    files,
		maxBytes: maxBytes,
		newKey: func(ext string) string {
			return ImageKeyPrefix + uuid.New().String() + ext
		},
	}
}

func (s *imageService) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.files.URL(ref)
}

func (s *imageService) Upload(ctx context.Context, ownerID, recipeID uint, r io.Reader) (*model.Recipe, error) {
	recipe, err := s.store.Recipes().Get(ctx, ownerID, recipeID)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		metrics.ImagesStored.WithLabelValues("rejected").Inc()
		return nil, apperrors.NewValidationError("image", fmt.Sprintf("Ensure the file is no larger than %d bytes.", s.maxBytes))
	}

	format, err := decodeImage(data)
	if err != nil {
		metrics.ImagesStored.WithLabelValues("rejected").Inc()
		return nil, err
	}

	key := s.newKey(format.ext)
	if err := s.files.Save(ctx, key, bytes.NewReader(data), format.contentType); err != nil {
		metrics.ImagesStored.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("store image: %w", err)
	}

	if err := s.store.Recipes().SetImage(ctx, ownerID, recipeID, key); err != nil {
		if cleanupErr := s.files.Delete(ctx, key); cleanupErr != nil {
			slog.ErrorContext(ctx, "remove orphaned image failed", slog.String("image", key), slog.Any("error", cleanupErr))
		}
		metrics.ImagesStored.WithLabelValues("failed").Inc()
		return nil, err
	}

	if previous := recipe.Image; previous != "" && previous != key {
		if err := s.files.Delete(ctx, previous); err != nil {
			slog.WarnContext(ctx, "remove replaced image failed", slog.String("image", previous), slog.Any("error", err))
		}
	}

	metrics.ImagesStored.WithLabelValues("stored").Inc()
	slog.InfoContext(ctx, "recipe image stored", slog.Uint64("recipe_id", uint64(recipeID)), slog.String("image", key))
	recipe.Image = key
	return recipe, nil
}

// decodeImage fully decodes data so truncated or corrupt files are rejected,
// not only files with a wrong header.
func decodeImage(data []byte) (imageFormat, error) {
	invalid := apperrors.NewValidationError("image",
		"Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	if len(data) == 0 {
		return imageFormat{}, apperrors.NewValidationError("image", "The submitted file is empty.")
	}

	_, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return imageFormat{}, invalid
	}
	format, ok := formats[name]
	if !ok {
		return imageFormat{}, invalid
	}
	return format, nil
}
