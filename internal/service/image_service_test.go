package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "recipeapi/internal/errors"
	"recipeapi/internal/repository"
	"recipeapi/internal/storage"
)

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	return img
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sampleImage()))
	return buf.Bytes()
}

func newImageFixture(t *testing.T, maxBytes int64) (repository.Store, *storage.LocalStore, ImageService, uint, uint) {
	t.Helper()
	store := newTestStore(t)
	files := storage.NewLocalStore(t.TempDir(), "/media")
	svc := NewImageService(store, files, maxBytes)
	u := seedUser(t, store, "cook@example.com")
	r, err := NewRecipeService(store, files).Create(context.Background(), u.ID, baseInput("Pizza"))
	require.NoError(t, err)
	return store, files, svc, u.ID, r.ID
}

func storedFile(files *storage.LocalStore, key string) string {
	return filepath.Join(files.Root(), filepath.FromSlash(key))
}

func TestImageService_UploadFormats(t *testing.T) {
	var jpg, gf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, sampleImage(), nil))
	require.NoError(t, gif.Encode(&gf, sampleImage(), nil))

	tests := []struct {
		name string
		data []byte
		ext  string
	}{
		{name: "png", data: encodePNG(t), ext: ".png"},
		{name: "jpeg", data: jpg.Bytes(), ext: ".jpg"},
		{name: "gif", data: gf.Bytes(), ext: ".gif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, files, svc, ownerID, recipeID := newImageFixture(t, 1<<20)

			r, err := svc.Upload(context.Background(), ownerID, recipeID, bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(r.Image, ImageKeyPrefix))
			assert.True(t, strings.HasSuffix(r.Image, tt.ext))
			assert.Equal(t, "/media/"+r.Image, svc.URL(r.Image))

			data, err := os.ReadFile(storedFile(files, r.Image))
			require.NoError(t, err)
			assert.Equal(t, tt.data, data)
		})
	}
}

func TestImageService_RejectsInvalidImages(t *testing.T) {
	store, files, svc, ownerID, recipeID := newImageFixture(t, 64)
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "not an image", data: []byte("notimage")},
		{name: "empty", data: nil},
		{name: "truncated png", data: encodePNG(t)[:20]},
		{name: "too large", data: bytes.Repeat([]byte{0x89}, 65)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, ownerID, recipeID, bytes.NewReader(tt.data))
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, "image")
		})
	}

	r, err := store.Recipes().Get(ctx, ownerID, recipeID)
	require.NoError(t, err)
	assert.Empty(t, r.Image)

	_, err = os.Stat(filepath.Join(files.Root(), "uploads"))
	assert.True(t, os.IsNotExist(err), "rejected uploads never touch storage")
}

func TestImageService_ReplaceDeletesPrevious(t *testing.T) {
	_, files, svc, ownerID, recipeID := newImageFixture(t, 1<<20)
	ctx := context.Background()

	first, err := svc.Upload(ctx, ownerID, recipeID, bytes.NewReader(encodePNG(t)))
	require.NoError(t, err)
	firstKey := first.Image

	second, err := svc.Upload(ctx, ownerID, recipeID, bytes.NewReader(encodePNG(t)))
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, second.Image)

	_, err = os.Stat(storedFile(files, firstKey))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(storedFile(files, second.Image))
	assert.NoError(t, err)
}

func TestImageService_OtherOwnerIsNotFound(t *testing.T) {
	store, _, svc, _, recipeID := newImageFixture(t, 1<<20)
	stranger := seedUser(t, store, "stranger@example.com")

	_, err := svc.Upload(context.Background(), stranger.ID, recipeID, bytes.NewReader(encodePNG(t)))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestImageService_FailedRecordRemovesFile(t *testing.T) {
	store, files, _, ownerID, recipeID := newImageFixture(t, 1<<20)
	svc := NewImageService(&imageFailStore{Store: store}, files, 1<<20)

	_, err := svc.Upload(context.Background(), ownerID, recipeID, bytes.NewReader(encodePNG(t)))
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(files.Root(), "uploads", "recipe"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecipeService_DeleteRemovesImage(t *testing.T) {
	store, files, svc, ownerID, recipeID := newImageFixture(t, 1<<20)
	ctx := context.Background()

	r, err := svc.Upload(ctx, ownerID, recipeID, bytes.NewReader(encodePNG(t)))
	require.NoError(t, err)

	require.NoError(t, NewRecipeService(store, files).Delete(ctx, ownerID, recipeID))
	_, err = os.Stat(storedFile(files, r.Image))
	assert.True(t, os.IsNotExist(err))
}

type imageFailStore struct {
	repository.Store
}

func (s *imageFailStore) Recipes() repository.RecipeRepository {
	return imageFailRecipes{RecipeRepository: s.Store.Recipes()}
}

type imageFailRecipes struct {
	repository.RecipeRepository
}

func (imageFailRecipes) SetImage(context.Context, uint, uint, string) error {
	return assert.AnError
}
