package catalogdb

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/catalog"
)

type dbService struct {
	ID          int             `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Active      bool            `db:"is_active"`
	ImagePath   string          `db:"image_path"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func toDBService(s catalog.Service) dbService {
	return dbService(s)
}

func toService(s dbService) catalog.Service {
	return catalog.Service(s)
}

func toServices(ss []dbService) []catalog.Service {
	slice := make([]catalog.Service, len(ss))
	for i, s := range ss {
		slice[i] = toService(s)
	}
	return slice
}

type dbSubscription struct {
	ClientID     int             `db:"client_id"`
	ServiceID    int             `db:"service_id"`
	ServiceName  string          `db:"service_name"`
	Price        decimal.Decimal `db:"price"`
	SubscribedAt time.Time       `db:"subscribed_at"`
}

func toSubscriptions(subs []dbSubscription) []catalog.Subscription {
	slice := make([]catalog.Subscription, len(subs))
	for i, s := range subs {
		slice[i] = catalog.Subscription(s)
	}
	return slice
}

type dbID struct {
	ID int `db:"id"`
}

type dbCount struct {
	Total int `db:"total"`
}
