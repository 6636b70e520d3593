package settings

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

func TestStaticPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStatic(Defaults())

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Nails & Brows", got.StoreName)
	assert.True(t, decimal.NewFromInt(1000).Equal(got.DailyTarget))

	saved, err := s.Put(ctx, domain.BusinessSettings{
		StoreName:     "  ",
		DailyTarget:   decimal.NewFromInt(1500),
		MonthlyTarget: decimal.NewFromInt(40000),
	})
	require.NoError(t, err)
	assert.Equal(t, "Nails & Brows", saved.StoreName)

	got, err = s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1500).Equal(got.DailyTarget))
}

func TestPutRejectsNegativeTargets(t *testing.T) {
	s := NewStatic(Defaults())
	_, err := s.Put(context.Background(), domain.BusinessSettings{DailyTarget: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("NAILSANDBROWS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set NAILSANDBROWS_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	key := fmt.Sprintf("nailsandbrows:test:settings:%d", time.Now().UnixNano())
	r := NewRedisWithClient(client, key, Defaults())
	t.Cleanup(func() {
		_ = client.Del(ctx, key).Err()
		_ = r.Close()
	})
	require.NoError(t, r.Ping(ctx))

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Defaults().StoreName, got.StoreName)

	_, err = r.Put(ctx, domain.BusinessSettings{
		StoreName:     "Brow Bar",
		DailyTarget:   decimal.RequireFromString("1250.75"),
		MonthlyTarget: decimal.NewFromInt(35000),
	})
	require.NoError(t, err)

	got, err = r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Brow Bar", got.StoreName)
	assert.True(t, decimal.RequireFromString("1250.75").Equal(got.DailyTarget))
}
