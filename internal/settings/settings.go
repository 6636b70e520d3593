// Package settings holds the business settings (store name and sales
// targets) read by the dashboard.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

var ErrInvalidSettings = errors.New("invalid settings")

type Store interface {
	Get(ctx context.Context) (domain.BusinessSettings, error)
	Put(ctx context.Context, value domain.BusinessSettings) (domain.BusinessSettings, error)
}

// Defaults are the values used before anyone saves settings.
func Defaults() domain.BusinessSettings {
	return domain.BusinessSettings{
		StoreName:     "Nails & Brows",
		DailyTarget:   decimal.NewFromInt(1000),
		MonthlyTarget: decimal.NewFromInt(30000),
	}
}

// Normalize trims the store name and rejects negative targets. A blank
// name keeps the fallback name.
func Normalize(value domain.BusinessSettings, fallback domain.BusinessSettings) (domain.BusinessSettings, error) {
	value.StoreName = strings.TrimSpace(value.StoreName)
	if value.StoreName == "" {
		value.StoreName = fallback.StoreName
	}
	if value.DailyTarget.IsNegative() || value.MonthlyTarget.IsNegative() {
		return domain.BusinessSettings{}, fmt.Errorf("%w: targets must not be negative", ErrInvalidSettings)
	}
	return value, nil
}

// Static keeps settings in process memory.
type Static struct {
	mu       sync.RWMutex
	value    domain.BusinessSettings
	fallback domain.BusinessSettings
}

func NewStatic(initial domain.BusinessSettings) *Static {
	return &Static{value: initial, fallback: initial}
}

func (s *Static) Get(_ context.Context) (domain.BusinessSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, nil
}

func (s *Static) Put(_ context.Context, value domain.BusinessSettings) (domain.BusinessSettings, error) {
	value, err := Normalize(value, s.fallback)
	if err != nil {
		return domain.BusinessSettings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	return value, nil
}
