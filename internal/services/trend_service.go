package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"stylefinder/internal/catalog"
	"stylefinder/internal/config"
	"stylefinder/internal/logging"
	"stylefinder/internal/models"
)

// SpikeFactor is how much recent sales must exceed the prior-year baseline,
// strictly, to count as a spike.
const SpikeFactor = 1.5

// TrendColumns are the catalog columns the ranking reads.
var TrendColumns = []string{
	models.ColumnProductID,
	models.ColumnName,
	models.ColumnMainCategory,
	models.ColumnTargetAudience,
	models.ColumnDate,
	models.ColumnQuantity,
}

// TrendParams fixes the reference dates and filters of a ranking.
type TrendParams struct {
	TargetYear       int
	SeasonalMonth    time.Month
	Recent           config.Window
	Prior            config.Window
	SeasonalExcludes []string
	TrendExcludes    []string
	TopN             int
}

// NewTrendParams converts the trends configuration.
func NewTrendParams(cfg config.TrendsConfig) (TrendParams, error) {
	recent, err := cfg.RecentWindow()
	if err != nil {
		return TrendParams{}, fmt.Errorf("recent window: %w", err)
	}
	prior, err := cfg.PriorWindow()
	if err != nil {
		return TrendParams{}, fmt.Errorf("prior window: %w", err)
	}
	return TrendParams{
		TargetYear:       cfg.TargetYear,
		SeasonalMonth:    time.Month(cfg.SeasonalMonth),
		Recent:           recent,
		Prior:            prior,
		SeasonalExcludes: cfg.SeasonalExcludes,
		TrendExcludes:    cfg.TrendExcludes,
		TopN:             cfg.TopN,
	}, nil
}

type groupKey struct {
	category models.MainCategory
	audience models.TargetAudience
}

type recordKey struct {
	groupKey
	name string
}

type joinKey struct {
	name     string
	category models.MainCategory
}

// TrendService ranks seasonal best sellers and year-over-year spikes over
// one catalog snapshot. Every call recomputes from the snapshot.
type TrendService struct {
	products  []models.Product
	byName    map[joinKey][]int
	params    TrendParams
	publisher EventPublisher
	validate  *validator.Validate
}

// NewTrendService creates a TrendService. It fails with
// models.ErrMissingColumn when the snapshot lacks a column the ranking reads.
func NewTrendService(snap *catalog.Snapshot, params TrendParams, publisher EventPublisher) (*TrendService, error) {
	if missing := snap.MissingColumns(TrendColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, strings.Join(missing, ", "))
	}
	if params.TopN <= 0 {
		return nil, errors.New("top N must be positive")
	}
	s := &TrendService{
		products:  snap.Products,
		byName:    make(map[joinKey][]int),
		params:    params,
		publisher: publisher,
		validate:  models.NewValidator(),
	}
	for i, p := range s.products {
		k := joinKey{name: p.Name, category: p.MainCategory}
		s.byName[k] = append(s.byName[k], i)
	}
	return s, nil
}

// Rank returns both ranked lists for the requested group. An unknown
// category or audience yields a *models.ValidationError and nothing is computed.
func (s *TrendService) Rank(ctx context.Context, req models.TrendRequest) (*models.TrendResult, error) {
	req.MainCategory = strings.TrimSpace(req.MainCategory)
	req.TargetAudience = strings.TrimSpace(req.TargetAudience)
	if err := s.validate.Struct(req); err != nil {
		return nil, trendRequestError(req, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	group := groupKey{
		category: models.MainCategory(req.MainCategory),
		audience: models.TargetAudience(req.TargetAudience),
	}

	result := &models.TrendResult{
		SeasonalTopProducts:  s.seasonalTop(group),
		FashionTrendProducts: s.fashionTrend(group),
	}

	logging.Debug().
		Str("main_category", req.MainCategory).
		Str("target_audience", req.TargetAudience).
		Int("seasonal", len(result.SeasonalTopProducts)).
		Int("trending", len(result.FashionTrendProducts)).
		Msg("trends ranked")

	publish(s.publisher, "trends.computed", func(p EventPublisher) error {
		return p.PublishTrendsComputed(models.TrendEvent{
			EventID:        uuid.New().String(),
			MainCategory:   group.category,
			TargetAudience: group.audience,
			SeasonalCount:  len(result.SeasonalTopProducts),
			TrendCount:     len(result.FashionTrendProducts),
			OccurredAt:     time.Now().UTC(),
		})
	})
	return result, nil
}

// trendRequestError reports the category before the audience.
func trendRequestError(req models.TrendRequest, err error) error {
	if _, perr := models.ParseMainCategory(req.MainCategory); perr != nil {
		return perr
	}
	if _, perr := models.ParseTargetAudience(req.TargetAudience); perr != nil {
		return perr
	}
	return fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
}

// seasonalTop takes the TopN rows by quantity per group among the seasonal
// month of earlier years. Equal quantities keep catalog order.
func (s *TrendService) seasonalTop(want groupKey) []models.TrendProduct {
	groups := make(map[groupKey][]int)
	for i, p := range s.products {
		if p.Date.Month() != s.params.SeasonalMonth || p.Date.Year() >= s.params.TargetYear {
			continue
		}
		if excluded(p.Name, s.params.SeasonalExcludes) {
			continue
		}
		k := groupKey{category: p.MainCategory, audience: p.TargetAudience}
		groups[k] = append(groups[k], i)
	}

	rows := groups[want]
	sort.SliceStable(rows, func(a, b int) bool {
		return s.products[rows[a]].Quantity > s.products[rows[b]].Quantity
	})
	if len(rows) > s.params.TopN {
		rows = rows[:s.params.TopN]
	}

	out := make([]models.TrendProduct, 0, len(rows))
	for _, i := range rows {
		out = append(out, models.NewTrendProduct(s.products[i]))
	}
	return out
}

// fashionTrend ranks spiking names of the group and joins them back to
// every catalog row sharing their name and category.
func (s *TrendService) fashionTrend(want groupKey) []models.TrendProduct {
	records := s.trendRecords()

	var ranked []models.TrendRecord
	for _, r := range records {
		if r.MainCategory == want.category && r.TargetAudience == want.audience && r.HasSpike {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].WeightedSpike != ranked[b].WeightedSpike {
			return ranked[a].WeightedSpike > ranked[b].WeightedSpike
		}
		return ranked[a].QuantitySum > ranked[b].QuantitySum
	})
	if len(ranked) > s.params.TopN {
		ranked = ranked[:s.params.TopN]
	}

	out := make([]models.TrendProduct, 0, len(ranked))
	for i := range ranked {
		rec := ranked[i]
		for _, j := range s.byName[joinKey{name: rec.Name, category: rec.MainCategory}] {
			tp := models.NewTrendProduct(s.products[j])
			tp.Trend = &rec
			out = append(out, tp)
		}
	}
	return out
}

// trendRecords aggregates the recent window per (category, audience, name)
// and compares it with the prior-year window. Records come out in the order
// their key first appears in the catalog.
func (s *TrendService) trendRecords() []models.TrendRecord {
	var order []recordKey
	recent := make(map[recordKey]*models.TrendRecord)
	prior := make(map[recordKey]int)

	for _, p := range s.products {
		if excluded(p.Name, s.params.TrendExcludes) {
			continue
		}
		k := recordKey{groupKey: groupKey{category: p.MainCategory, audience: p.TargetAudience}, name: p.Name}
		switch {
		case s.params.Recent.Contains(p.Date):
			rec, ok := recent[k]
			if !ok {
				rec = &models.TrendRecord{MainCategory: p.MainCategory, TargetAudience: p.TargetAudience, Name: p.Name}
				recent[k] = rec
				order = append(order, k)
			}
			rec.QuantitySum += p.Quantity
			if rec.LastDate.IsZero() || !p.Date.Before(rec.LastDate) {
				rec.LastQuantity = p.Quantity
				rec.LastDate = p.Date
			}
		case s.params.Prior.Contains(p.Date):
			prior[k] += p.Quantity
		}
	}

	records := make([]models.TrendRecord, 0, len(order))
	for _, k := range order {
		rec := *recent[k]
		rec.QuantitySumLastYear = prior[k]
		records = append(records, ScoreSpike(rec))
	}
	return records
}

// ScoreSpike fills the spike fields of rec from its two quantity sums.
// Names without prior-year sales get weight 2.
func ScoreSpike(rec models.TrendRecord) models.TrendRecord {
	rec.HasSpike = float64(rec.QuantitySum) > float64(rec.QuantitySumLastYear)*SpikeFactor
	rec.Weight = 1
	if rec.QuantitySumLastYear == 0 {
		rec.Weight = 2
	}
	rec.WeightedSpike = 0
	if rec.HasSpike {
		rec.WeightedSpike = rec.QuantitySum * rec.Weight
	}
	return rec
}

func excluded(name string, terms []string) bool {
	lower := strings.ToLower(name)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
