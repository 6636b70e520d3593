package report

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

const (
	DefaultTopN = 5

	unknownServiceID   = "unknown"
	unknownServiceName = "?"
)

// TopServices ranks services by revenue descending. Ties are broken by
// service id ascending so the result never depends on map order.
func TopServices(txs []domain.Transaction, n int) []domain.ServiceRank {
	if n <= 0 {
		n = DefaultTopN
	}

	byService := map[string]*domain.ServiceRank{}
	for _, tx := range txs {
		for _, item := range tx.Items {
			if item.Quantity < 1 {
				continue
			}
			id := strings.TrimSpace(item.ServiceID)
			if id == "" {
				id = unknownServiceID
			}
			rank := byService[id]
			if rank == nil {
				name := item.ServiceName
				if strings.TrimSpace(name) == "" {
					name = unknownServiceName
				}
				rank = &domain.ServiceRank{
					ServiceID: id,
					Name:      name,
					Category:  item.Category.Normalize(),
					Revenue:   decimal.Zero,
				}
				byService[id] = rank
			}
			rank.Revenue = rank.Revenue.Add(item.Revenue())
			rank.Count += int64(item.Quantity)
		}
	}

	ranked := make([]domain.ServiceRank, 0, len(byService))
	for _, rank := range byService {
		ranked = append(ranked, *rank)
	}
	slices.SortFunc(ranked, func(a, b domain.ServiceRank) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return strings.Compare(a.ServiceID, b.ServiceID)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
