package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const (
	dashboardMonths = 6
	reportDays      = 7
)

type ReportService struct {
	Repo *repo.GormRepo
	// Now defaults to time.Now.
	Now func() time.Time
}

type KPIs struct {
	TotalOrders     int64   `json:"total_orders"`
	PendingOrders   int64   `json:"pending_orders"`
	CompletedOrders int64   `json:"completed_orders"`
	TotalSales      float64 `json:"total_sales"`
}

type MonthlyOrders struct {
	Month  string `json:"month"`
	Orders int64  `json:"orders"`
}

type StatusShare struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

type Charts struct {
	MonthlyOrders      []MonthlyOrders `json:"monthly_orders"`
	StatusDistribution []StatusShare   `json:"status_distribution"`
}

type Dashboard struct {
	KPIs   KPIs   `json:"kpis"`
	Charts Charts `json:"charts"`
}

type Report struct {
	TotalSales  float64         `json:"total_sales"`
	TotalOrders int64           `json:"total_orders"`
	DailyOrders []repo.DaySales `json:"daily_orders"`
}

func (s *ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	var err error

	if d.KPIs.TotalOrders, err = s.Repo.CountOrders(ctx); err != nil {
		return nil, err
	}
	if d.KPIs.PendingOrders, err = s.Repo.CountOrders(ctx, models.OrderStatusPending); err != nil {
		return nil, err
	}
	if d.KPIs.CompletedOrders, err = s.Repo.CountOrders(ctx, models.OrderStatusCompleted); err != nil {
		return nil, err
	}
	if d.KPIs.TotalSales, err = s.Repo.SumOrderTotals(ctx, models.OrderStatusCompleted); err != nil {
		return nil, err
	}
	d.KPIs.TotalSales = roundCents(d.KPIs.TotalSales)

	if d.Charts.MonthlyOrders, err = s.monthly(ctx); err != nil {
		return nil, err
	}

	counts, err := s.Repo.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byStatus := make(map[models.OrderStatus]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	d.Charts.StatusDistribution = make([]StatusShare, 0, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		d.Charts.StatusDistribution = append(d.Charts.StatusDistribution, StatusShare{Status: st, Count: byStatus[st]})
	}
	return &d, nil
}

// monthly counts orders per calendar month (UTC) for the current month and
// the five before it, oldest first. Months without orders report zero.
func (s *ReportService) monthly(ctx context.Context) ([]MonthlyOrders, error) {
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(dashboardMonths - 1), 0)

	points, err := s.Repo.OrdersSince(ctx, first)
	if err != nil {
		return nil, err
	}

	out := make([]MonthlyOrders, dashboardMonths)
	index := make(map[string]int, dashboardMonths)
	for i := range out {
		m := first.AddDate(0, i, 0)
		out[i].Month = m.Format("Jan")
		index[m.Format("2006-01")] = i
	}
	for _, p := range points {
		if i, ok := index[p.CreatedAt.UTC().Format("2006-01")]; ok {
			out[i].Orders++
		}
	}
	return out, nil
}

// Reports summarizes COMPLETED orders: overall totals and the most recent
// days that had sales.
func (s *ReportService) Reports(ctx context.Context) (*Report, error) {
	var r Report
	var err error

	if r.TotalSales, err = s.Repo.SumOrderTotals(ctx, models.OrderStatusCompleted); err != nil {
		return nil, err
	}
	r.TotalSales = roundCents(r.TotalSales)
	if r.TotalOrders, err = s.Repo.CountOrders(ctx, models.OrderStatusCompleted); err != nil {
		return nil, err
	}
	if r.DailyOrders, err = s.Repo.RecentDailySales(ctx, models.OrderStatusCompleted, reportDays); err != nil {
		return nil, err
	}
	for i := range r.DailyOrders {
		r.DailyOrders[i].Sales = roundCents(r.DailyOrders[i].Sales)
	}
	return &r, nil
}
