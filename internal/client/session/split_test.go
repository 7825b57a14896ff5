package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yski/yski-client/internal/client/storage"
	"github.com/yski/yski-client/internal/crypto"
	"github.com/yski/yski-client/internal/models"
)

func newSealer(t *testing.T) *crypto.Sealer {
	t.Helper()
	key := make([]byte, crypto.KeySize)
	_, _ = rand.Read(key)
	s, err := crypto.NewSealer(key)
	require.NoError(t, err)
	return s
}

func TestSplitPersister_TokensOnlyInSecureStore(t *testing.T) {
	ctx := context.Background()
	state, secure := newMemKV(), newMemKV()
	p := NewSplitPersister(state, secure, newSealer(t), MobileKey, nil)

	require.NoError(t, p.Save(ctx, Session{User: testUser(models.RoleSahabat), AccessToken: "access-xyz", RefreshToken: "refresh-xyz"}))

	rawState, err := state.Get(ctx, MobileKey)
	require.NoError(t, err)
	assert.NotContains(t, string(rawState), "access-xyz")
	assert.NotContains(t, string(rawState), "refresh-xyz")
	assert.Contains(t, string(rawState), `"isAuthenticated":true`)

	rawSecure, err := secure.Get(ctx, MobileKey)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(rawSecure), "access-xyz"), "в защищенном хранилище только шифртекст")

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.IsAuthenticated)
	assert.Equal(t, "access-xyz", loaded.AccessToken)
	assert.Equal(t, "refresh-xyz", loaded.RefreshToken)
	assert.Equal(t, models.RoleSahabat, loaded.User.Role)
}

func TestSplitPersister_MissingOrForeignSecureEntry(t *testing.T) {
	ctx := context.Background()
	state, secure := newMemKV(), newMemKV()
	p := NewSplitPersister(state, secure, newSealer(t), MobileKey, nil)
	require.NoError(t, p.Save(ctx, Session{User: testUser(models.RoleRelawan), AccessToken: "a", RefreshToken: "r"}))

	// другой ключ устройства
	other := NewSplitPersister(state, secure, newSealer(t), MobileKey, nil)
	loaded, err := other.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{}, loaded)

	require.NoError(t, secure.Delete(ctx, MobileKey))
	loaded, err = p.Load(ctx)
	require.NoError(t, err)
	assert.False(t, loaded.IsAuthenticated)
	assert.Nil(t, loaded.User, "профиль без токенов отбрасывается")
}

func TestSplitPersister_MovesLegacyTokens(t *testing.T) {
	ctx := context.Background()
	state, secure := newMemKV(), newMemKV()
	legacy := map[string]any{
		"state": map[string]any{
			"user":            map[string]any{"id": "1", "role": "relawan"},
			"token":           "legacy-access",
			"refreshToken":    "legacy-refresh",
			"isAuthenticated": true,
		},
		"version": 0,
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, state.Put(ctx, MobileKey, raw))

	p := NewSplitPersister(state, secure, newSealer(t), MobileKey, nil)
	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.IsAuthenticated)
	assert.Equal(t, "legacy-access", loaded.AccessToken)

	rawState, err := state.Get(ctx, MobileKey)
	require.NoError(t, err)
	assert.NotContains(t, string(rawState), "legacy-access", "токены перенесены из обычного хранилища")
	_, err = secure.Get(ctx, MobileKey)
	require.NoError(t, err)

	again, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, loaded, again)
}

func TestSplitPersister_Clear(t *testing.T) {
	ctx := context.Background()
	state, secure := newMemKV(), newMemKV()
	p := NewSplitPersister(state, secure, newSealer(t), MobileKey, nil)
	require.NoError(t, p.Save(ctx, Session{User: testUser(models.RoleAdmin), AccessToken: "a"}))

	require.NoError(t, p.Clear(ctx))
	_, err := state.Get(ctx, MobileKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = secure.Get(ctx, MobileKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = p.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
