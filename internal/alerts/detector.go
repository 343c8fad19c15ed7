// Package alerts implements the batch redistribution heuristics: given the
// merged snapshots of the top-selling products for a period, it flags products
// whose stock sits in the wrong locations and ranks the findings by severity.
package alerts

import (
	"math"
	"sort"

	"github.com/modacentro/retail-dashboard/backend-go/internal/aggregate"
	"github.com/modacentro/retail-dashboard/backend-go/internal/config"
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
)

var severityRank = map[domain.AlertSeverity]int{
	domain.SeverityAlta:  3,
	domain.SeverityMedia: 2,
	domain.SeverityBaja:  1,
}

// Detector evaluates per-product snapshots against the store dimension.
type Detector struct {
	cfg    config.AlertConfig
	stores map[string]domain.Store
}

// NewDetector creates a detector. The store map comes from the dimension
// source; unknown store ids are classified on the fly from their id alone.
func NewDetector(cfg config.AlertConfig, stores map[string]domain.Store) *Detector {
	if stores == nil {
		stores = make(map[string]domain.Store)
	}
	return &Detector{cfg: cfg, stores: stores}
}

// Detect runs both alert heuristics over one product snapshot.
func (d *Detector) Detect(snap *aggregate.Snapshot, description string) []domain.RedistributionAlert {
	var alerts []domain.RedistributionAlert

	if a := d.centralStockNotDistributed(snap, description); a != nil {
		alerts = append(alerts, *a)
	}
	if a := d.imbalancedAcrossStores(snap, description); a != nil {
		alerts = append(alerts, *a)
	}

	return alerts
}

// Rank sorts alerts severity-desc, then by total affected sales volume desc.
// The invariant holds for every returned batch.
func Rank(alerts []domain.RedistributionAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := severityRank[alerts[i].Severity], severityRank[alerts[j].Severity]
		if ri != rj {
			return ri > rj
		}
		return alerts[i].TotalUnitsSold > alerts[j].TotalUnitsSold
	})
}

// centralStockNotDistributed fires when the central warehouse still holds
// stock while top-contributing retail stores are at or below the low-stock
// floor.
func (d *Detector) centralStockNotDistributed(snap *aggregate.Snapshot, description string) *domain.RedistributionAlert {
	centralStock := 0.0
	for id, tot := range snap.StoreTotals {
		if d.store(id).IsCentral() {
			centralStock += tot.OnHand
		}
	}
	if centralStock <= 0 {
		return nil
	}

	totalUnits := positiveTotalUnits(snap)
	if totalUnits <= 0 {
		return nil
	}

	var affected []domain.AffectedStore
	var uncoveredShare, totalNeeded float64
	for _, id := range snap.StoreIDs() {
		store := d.store(id)
		if !store.EligibleForRedistribution() {
			continue
		}

		tot := snap.StoreTotals[id]
		share := tot.Units / totalUnits * 100
		if share < d.cfg.HighSalesSharePct || tot.OnHand >= d.cfg.LowStockFloor {
			continue
		}

		status := domain.StockStatusBajoStock
		if tot.OnHand <= 0 {
			status = domain.StockStatusSinStock
		}

		affected = append(affected, domain.AffectedStore{
			StoreID:       id,
			StoreName:     store.Name,
			SalesSharePct: round1(share),
			Stock:         tot.OnHand,
			Status:        status,
		})
		uncoveredShare += share
		totalNeeded += math.Min(math.Max(tot.Units-math.Max(tot.OnHand, 0), 0), math.Max(tot.Units, 0))
	}

	if len(affected) == 0 {
		return nil
	}

	return &domain.RedistributionAlert{
		BaseCode:         snap.BaseCode,
		Description:      description,
		Type:             domain.AlertCentralStockNotDistributed,
		Severity:         d.shareSeverity(len(affected), uncoveredShare),
		AffectedStores:   affected,
		TotalExcessStock: centralStock,
		TotalNeededStock: totalNeeded,
		TotalUnitsSold:   snap.TotalUnits,
	}
}

// imbalancedAcrossStores partitions non-central stores into a "needs stock"
// side (high sales share, little stock) and a "has excess" side (low share,
// plenty of stock) and estimates the beneficial transfer volume.
func (d *Detector) imbalancedAcrossStores(snap *aggregate.Snapshot, description string) *domain.RedistributionAlert {
	totalUnits := positiveTotalUnits(snap)
	if totalUnits <= 0 {
		return nil
	}

	var needs, excess []domain.AffectedStore
	var totalNeeded, totalExcess float64

	for _, id := range snap.StoreIDs() {
		store := d.store(id)
		if !store.EligibleForRedistribution() {
			continue
		}

		tot := snap.StoreTotals[id]
		share := tot.Units / totalUnits * 100

		switch {
		case share >= d.cfg.HighSalesSharePct && tot.OnHand < d.cfg.LowStockFloor:
			// Needed stock is capped at the store's own sales: we never ask
			// to transfer more than what demonstrably sold there.
			need := math.Min(math.Max(tot.Units-math.Max(tot.OnHand, 0), 0), math.Max(tot.Units, 0))
			needs = append(needs, domain.AffectedStore{
				StoreID:       id,
				StoreName:     store.Name,
				SalesSharePct: round1(share),
				Stock:         tot.OnHand,
			})
			totalNeeded += need
		case share <= d.cfg.LowSalesSharePct && tot.OnHand >= d.cfg.ExcessStockFloor:
			excess = append(excess, domain.AffectedStore{
				StoreID:       id,
				StoreName:     store.Name,
				SalesSharePct: round1(share),
				Stock:         tot.OnHand,
			})
			totalExcess += math.Max(tot.OnHand-d.cfg.LowStockFloor, 0)
		}
	}

	if len(needs) == 0 || len(excess) == 0 || totalNeeded <= 0 || totalExcess <= 0 {
		return nil
	}

	return &domain.RedistributionAlert{
		BaseCode:         snap.BaseCode,
		Description:      description,
		Type:             domain.AlertImbalancedAcrossStores,
		Severity:         d.ratioSeverity(len(needs)+len(excess), totalNeeded/totalExcess),
		AffectedStores:   append(needs, excess...),
		TotalNeededStock: totalNeeded,
		TotalExcessStock: totalExcess,
		TotalUnitsSold:   snap.TotalUnits,
	}
}

func (d *Detector) store(id string) domain.Store {
	if s, ok := d.stores[id]; ok {
		return s
	}
	return domain.Store{ID: id, Class: domain.ClassifyStore(id, "")}
}

// shareSeverity grades an alert by affected-store count and the total sales
// share left uncovered.
func (d *Detector) shareSeverity(count int, uncoveredSharePct float64) domain.AlertSeverity {
	switch {
	case count >= d.cfg.SeverityAltaStores || uncoveredSharePct >= d.cfg.SeverityAltaSharePct:
		return domain.SeverityAlta
	case count >= d.cfg.SeverityMediaStores || uncoveredSharePct >= d.cfg.SeverityMediaSharePct:
		return domain.SeverityMedia
	default:
		return domain.SeverityBaja
	}
}

// ratioSeverity grades an alert by affected-store count and the need/excess
// magnitude ratio.
func (d *Detector) ratioSeverity(count int, ratio float64) domain.AlertSeverity {
	switch {
	case count >= d.cfg.SeverityAltaStores || ratio >= d.cfg.SeverityAltaRatio:
		return domain.SeverityAlta
	case count >= d.cfg.SeverityMediaStores || ratio >= d.cfg.SeverityMediaRatio:
		return domain.SeverityMedia
	default:
		return domain.SeverityBaja
	}
}

// positiveTotalUnits sums per-store sales, ignoring stores with net returns,
// so a share denominator is never negative.
func positiveTotalUnits(snap *aggregate.Snapshot) float64 {
	total := 0.0
	for _, tot := range snap.StoreTotals {
		if tot.Units > 0 {
			total += tot.Units
		}
	}
	return total
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
