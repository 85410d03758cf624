package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"recipeapi/internal/cache"
	"recipeapi/internal/config"
	"recipeapi/internal/db"
	"recipeapi/internal/model"
	"recipeapi/internal/reconcile"
	"recipeapi/internal/repository"
)

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	gdb, err := db.Open(config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewStore(gdb)
}

func newTestCache(t *testing.T) (*cache.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func seedUser(t *testing.T, store repository.Store, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "x", IsActive: true}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func names(values ...string) []reconcile.Descriptor {
	out := make([]reconcile.Descriptor, len(values))
	for i, v := range values {
		out[i] = reconcile.Descriptor{Name: v}
	}
	return out
}

func tagNames(r *model.Recipe) []string {
	out := make([]string, len(r.Tags))
	for i, t := range r.Tags {
		out[i] = t.Name
	}
	return out
}
