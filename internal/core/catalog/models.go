package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a banking product with a monthly price. A price of zero makes
// the service free to subscribe.
type Service struct {
	ID          int
	Name        string
	Description string
	Price       decimal.Decimal
	Active      bool
	ImagePath   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type NewService struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImagePath   string
}

// UpdateService carries the fields an update may change. Nil means keep.
type UpdateService struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Active      *bool
	ImagePath   *string
}

// Subscription links a client to a service. ServiceName and Price are
// denormalized for billing; they are only set on reads that join services.
type Subscription struct {
	ClientID     int
	ServiceID    int
	ServiceName  string
	Price        decimal.Decimal
	SubscribedAt time.Time
}

// BillingSummary reports the outcome of one billing sweep.
type BillingSummary struct {
	StartedAt time.Time
	Charged   int
	Failed    int
	Items     []BillingItem
}

type BillingItem struct {
	ClientID  int
	ServiceID int
	Service   string
	Amount    decimal.Decimal
	Err       error
}
