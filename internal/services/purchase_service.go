package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// PurchaseService manages the planned-purchase wishlist and ranks it against
// what the accounts can actually cover.
type PurchaseService struct {
	storage *storage.SQLiteRepository
}

func NewPurchaseService(storage *storage.SQLiteRepository) *PurchaseService {
	return &PurchaseService{storage: storage}
}

// RankedPurchase is a wishlist entry with its affordability position:
// Affordable is true while the running total of higher-priority items plus
// this one still fits inside the available balance.
type RankedPurchase struct {
	Purchase   core.PlannedPurchase
	Cumulative decimal.Decimal
	Affordable bool
}

func (s *PurchaseService) Add(ctx context.Context, p core.PlannedPurchase) (int64, error) {
	if p.Priority == 0 {
		p.Priority = 3
	}
	if p.Status == "" {
		p.Status = core.PurchasePlanned
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return s.storage.CreatePlannedPurchase(ctx, p)
}

func (s *PurchaseService) Get(ctx context.Context, id int64) (*core.PlannedPurchase, error) {
	return s.storage.GetPlannedPurchase(ctx, id)
}

func (s *PurchaseService) List(ctx context.Context, userID int64, status core.PurchaseStatus) ([]core.PlannedPurchase, error) {
	return s.storage.ListPlannedPurchases(ctx, userID, status)
}

func (s *PurchaseService) MarkPurchased(ctx context.Context, id int64) error {
	return s.storage.UpdatePurchaseStatus(ctx, id, core.PurchaseBought)
}

func (s *PurchaseService) Cancel(ctx context.Context, id int64) error {
	return s.storage.UpdatePurchaseStatus(ctx, id, core.PurchaseCancelled)
}

func (s *PurchaseService) Delete(ctx context.Context, id int64) error {
	return s.storage.DeletePlannedPurchase(ctx, id)
}

// Rank orders the open wishlist by priority (1 is most urgent) then by cost,
// and walks it against the total balance of the user's active accounts.
func (s *PurchaseService) Rank(ctx context.Context, userID int64) ([]RankedPurchase, error) {
	purchases, err := s.storage.ListPlannedPurchases(ctx, userID, core.PurchasePlanned)
	if err != nil {
		return nil, err
	}

	accounts, err := s.storage.ListAccounts(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	available := decimal.Zero
	for _, a := range accounts {
		available = available.Add(a.Balance)
	}

	sort.Slice(purchases, func(i, j int) bool {
		if purchases[i].Priority != purchases[j].Priority {
			return purchases[i].Priority < purchases[j].Priority
		}
		return purchases[i].EstimatedCost.LessThan(purchases[j].EstimatedCost)
	})

	out := make([]RankedPurchase, 0, len(purchases))
	running := decimal.Zero
	for _, p := range purchases {
		running = running.Add(p.EstimatedCost)
		out = append(out, RankedPurchase{
			Purchase:   p,
			Cumulative: running,
			Affordable: running.LessThanOrEqual(available),
		})
	}
	return out, nil
}
