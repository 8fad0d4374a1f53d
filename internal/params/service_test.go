package params

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/austral-hr/austral-hr/internal/shared"
)

type stubRepository struct {
	params StatutoryParameters
	err    error
	calls  int
}

func (s *stubRepository) Get(ctx context.Context, companyID int64, period shared.Period) (StatutoryParameters, error) {
	s.calls++
	if s.err != nil {
		return StatutoryParameters{}, s.err
	}
	return s.params, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestResolveCachesValidatedParameters(t *testing.T) {
	repo := &stubRepository{params: validParameters(t)}
	resolver := NewResolver(repo, newTestRedis(t), time.Minute, testLogger())

	first, err := resolver.Resolve(context.Background(), 1, repo.params.Period)
	require.NoError(t, err)
	require.Equal(t, int64(460000), first.MinimumWage)
	require.Equal(t, 1, repo.calls)

	second, err := resolver.Resolve(context.Background(), 1, repo.params.Period)
	require.NoError(t, err)
	require.Equal(t, first.MinimumWage, second.MinimumWage)
	require.True(t, first.UF.Equal(second.UF))
	require.Equal(t, 1, repo.calls, "second resolve must hit the cache")
}

func TestResolveCacheKeyIsCompanyScoped(t *testing.T) {
	repo := &stubRepository{params: validParameters(t)}
	resolver := NewResolver(repo, newTestRedis(t), time.Minute, testLogger())

	_, err := resolver.Resolve(context.Background(), 1, repo.params.Period)
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), 2, repo.params.Period)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestResolveRejectsInvalidParameterSet(t *testing.T) {
	bad := validParameters(t)
	bad.TaxBrackets = nil
	repo := &stubRepository{params: bad}
	resolver := NewResolver(repo, newTestRedis(t), time.Minute, testLogger())

	_, err := resolver.Resolve(context.Background(), 1, bad.Period)
	require.ErrorIs(t, err, ErrInvalidBracketTable)
}

func TestResolveDropsCorruptCacheEntry(t *testing.T) {
	repo := &stubRepository{params: validParameters(t)}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	resolver := NewResolver(repo, client, time.Minute, testLogger())

	require.NoError(t, mr.Set(cacheKey(1, repo.params.Period), "{not json"))

	got, err := resolver.Resolve(context.Background(), 1, repo.params.Period)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)
	require.Equal(t, repo.params.MinimumWage, got.MinimumWage)
}

func TestResolveWorksWithoutCache(t *testing.T) {
	repo := &stubRepository{params: validParameters(t)}
	resolver := NewResolver(repo, nil, time.Minute, testLogger())

	_, err := resolver.Resolve(context.Background(), 1, repo.params.Period)
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), 1, repo.params.Period)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestResolvePropagatesNotFound(t *testing.T) {
	repo := &stubRepository{err: ErrParametersNotFound}
	resolver := NewResolver(repo, newTestRedis(t), time.Minute, testLogger())

	period, err := shared.NewPeriod(2026, 1)
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), 1, period)
	require.ErrorIs(t, err, ErrParametersNotFound)
}
