package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yski/yski-client/internal/client/storage"
	"github.com/yski/yski-client/internal/models"
	"github.com/yski/yski-client/internal/token"
)

// memKV - KV в памяти для тестов
type memKV struct {
	data   map[string][]byte
	putErr error
	delErr error
	mu     sync.Mutex
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

func testUser(role models.Role) *models.UserProfile {
	return &models.UserProfile{ID: "user-1", FullName: "Test", Email: "t@yski.org", Role: role, IsActive: true}
}

func accessToken(t *testing.T, role models.Role, ttl time.Duration) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return raw
}

// cookieRecorder запоминает зеркалированные cookie
type cookieRecorder struct {
	cookies []*http.Cookie
	mu      sync.Mutex
}

func (r *cookieRecorder) MirrorCookie(_ context.Context, c *http.Cookie) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cookies = append(r.cookies, c)
}

func (r *cookieRecorder) last() *http.Cookie {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cookies) == 0 {
		return nil
	}
	return r.cookies[len(r.cookies)-1]
}

func TestStore_SetAuthThenClearAuth(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	store := NewStore(NewBlobPersister(kv, WebKey))

	initial := store.Session()
	assert.False(t, initial.IsAuthenticated)

	require.NoError(t, store.SetAuth(ctx, testUser(models.RoleAdmin), "access", "refresh"))
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "access", store.AccessToken())
	assert.Equal(t, "refresh", store.RefreshToken())
	_, err := kv.Get(ctx, WebKey)
	require.NoError(t, err, "сессия сохранена")

	require.NoError(t, store.ClearAuth(ctx))
	assert.Equal(t, initial, store.Session())
	assert.Nil(t, store.User())
	_, err = kv.Get(ctx, WebKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_SetAuth_Incomplete(t *testing.T) {
	store := NewStore(NewBlobPersister(newMemKV(), WebKey))

	assert.ErrorIs(t, store.SetAuth(context.Background(), nil, "access", "refresh"), ErrIncompleteSession)
	assert.ErrorIs(t, store.SetAuth(context.Background(), testUser(models.RoleAdmin), "", "refresh"), ErrIncompleteSession)
	assert.False(t, store.IsAuthenticated())
}

func TestStore_HydrateAcrossRestart(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()

	first := NewStore(NewBlobPersister(kv, WebKey))
	require.NoError(t, first.SetAuth(ctx, testUser(models.RolePengurus), "access", "refresh"))

	second := NewStore(NewBlobPersister(kv, WebKey))
	assert.False(t, second.IsAuthenticated(), "до гидратации пусто")
	require.NoError(t, second.Hydrate(ctx))

	got := second.Session()
	assert.True(t, got.IsAuthenticated)
	assert.Equal(t, models.RolePengurus, got.User.Role)
	assert.Equal(t, "refresh", got.RefreshToken)
}

func TestStore_HydrateEmptyAndBroken(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	store := NewStore(NewBlobPersister(kv, WebKey))

	require.NoError(t, store.Hydrate(ctx))
	assert.False(t, store.IsAuthenticated())

	require.NoError(t, kv.Put(ctx, WebKey, []byte("{broken")))
	assert.Error(t, store.Hydrate(ctx))
	assert.False(t, store.IsAuthenticated())

	require.NoError(t, kv.Put(ctx, WebKey, []byte(`{"version":7,"state":{}}`)))
	assert.ErrorIs(t, store.Hydrate(ctx), ErrSnapshotVersion)
}

func TestStore_UpdateTokens(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewBlobPersister(newMemKV(), WebKey))

	assert.ErrorIs(t, store.UpdateTokens(ctx, "a2", "r2"), ErrNotAuthenticated)

	user := testUser(models.RoleAdmin)
	require.NoError(t, store.SetAuth(ctx, user, "a1", "r1"))
	require.NoError(t, store.UpdateTokens(ctx, "a2", "r2"))
	assert.Equal(t, "a2", store.AccessToken())
	assert.Equal(t, "r2", store.RefreshToken())
	assert.Equal(t, user, store.User())

	require.NoError(t, store.UpdateTokens(ctx, "a3", ""))
	assert.Equal(t, "r2", store.RefreshToken(), "пустой refresh не затирает прежний")
}

func TestStore_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	store := NewStore(NewBlobPersister(kv, WebKey))
	require.NoError(t, store.SetAuth(ctx, testUser(models.RoleAdmin), "a", "r"))

	kv.delErr = errors.New("disk full")
	err := store.ClearAuth(ctx)
	assert.Error(t, err)
	assert.False(t, store.IsAuthenticated(), "память очищена несмотря на ошибку")

	kv.putErr = errors.New("disk full")
	err = store.SetAuth(ctx, testUser(models.RoleAdmin), "a", "r")
	assert.Error(t, err)
	assert.True(t, store.IsAuthenticated())
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewBlobPersister(newMemKV(), WebKey))
	user := testUser(models.RolePengurus)
	require.NoError(t, store.SetAuth(ctx, user, "a", "r"))

	user.Role = models.RoleAdmin
	got := store.User()
	assert.Equal(t, models.RolePengurus, got.Role)

	got.Role = models.RoleAdmin
	assert.Equal(t, models.RolePengurus, store.Session().User.Role)
}

func TestStore_CookieMirror(t *testing.T) {
	ctx := context.Background()
	rec := &cookieRecorder{}
	store := NewStore(NewBlobPersister(newMemKV(), WebKey), WithCookieMirror(rec, DefaultCookieTTL, true))

	access := accessToken(t, models.RoleAdmin, time.Hour)
	require.NoError(t, store.SetAuth(ctx, testUser(models.RoleAdmin), access, "r"))

	c := rec.last()
	require.NotNil(t, c)
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, access, c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 900, c.MaxAge)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.False(t, c.HttpOnly)
	assert.True(t, c.Secure)

	require.NoError(t, store.ClearAuth(ctx))
	assert.Equal(t, -1, rec.last().MaxAge)
}

func TestAccessCookie_ClampsToTokenExpiry(t *testing.T) {
	now := time.Now()

	short := accessToken(t, models.RoleAdmin, 5*time.Minute)
	c := AccessCookie(short, 15*time.Minute, now, false)
	assert.InDelta(t, 300, c.MaxAge, 2)

	expired := accessToken(t, models.RoleAdmin, -time.Minute)
	assert.Equal(t, -1, AccessCookie(expired, 15*time.Minute, now, false).MaxAge)

	// неразбираемый токен получает ttl по умолчанию; edge все равно его отвергнет
	assert.Equal(t, 900, AccessCookie("opaque", 15*time.Minute, now, false).MaxAge)
	assert.Equal(t, -1, AccessCookie("", 15*time.Minute, now, false).MaxAge)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewBlobPersister(newMemKV(), WebKey))
	require.NoError(t, store.SetAuth(ctx, testUser(models.RoleAdmin), "a", "r"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.UpdateTokens(ctx, "a2", "r2")
		}()
		go func() {
			defer wg.Done()
			s := store.Session()
			// инвариант соблюдается в любом наблюдаемом состоянии
			assert.Equal(t, s.AccessToken != "" && s.User != nil, s.IsAuthenticated)
		}()
	}
	wg.Wait()
}
