package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

type StatusCount struct {
	Status models.OrderStatus
	Count  int64
}

// OrderPoint is the slice of an order the reports aggregate over.
type OrderPoint struct {
	Status    models.OrderStatus
	Total     float64
	CreatedAt time.Time
}

// CountOrders counts all orders, or only those in the given statuses.
func (r *GormRepo) CountOrders(ctx context.Context, statuses ...models.OrderStatus) (int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *GormRepo) SumOrderTotals(ctx context.Context, statuses ...models.OrderStatus) (float64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Select("COALESCE(SUM(total), 0)")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var sum float64
	err := q.Scan(&sum).Error
	return sum, err
}

func (r *GormRepo) CountOrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *GormRepo) OrdersSince(ctx context.Context, since time.Time) ([]OrderPoint, error) {
	var rows []OrderPoint
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, total, created_at").
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, err
}

type DaySales struct {
	Date  string  `gorm:"column:day" json:"date"`
	Count int64   `json:"count"`
	Sales float64 `json:"sales"`
}

// utcDay renders created_at as a YYYY-MM-DD UTC calendar day.
func (r *GormRepo) utcDay() string {
	if r.DB.Dialector.Name() == "postgres" {
		return "TO_CHAR(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
	}
	return "DATE(created_at)"
}

// RecentDailySales groups orders in the given status by UTC calendar day and
// returns the latest days that have any, newest first.
func (r *GormRepo) RecentDailySales(ctx context.Context, status models.OrderStatus, days int) ([]DaySales, error) {
	day := r.utcDay()
	out := make([]DaySales, 0, days)
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select(day+" AS day, COUNT(*) AS count, COALESCE(SUM(total), 0) AS sales").
		Where("status = ?", status).
		Group(day).
		Order("day DESC").
		Limit(days).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []DaySales{}
	}
	return out, nil
}
