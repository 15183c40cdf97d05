package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/deadline"
)

// Order is the record as held by the backend and cached by a session. The
// gateway never mutates Status/IsLocked locally except as a copy of the last
// confirmed backend response.
type Order struct {
	ID                  string            `json:"id"`
	ClientID            string            `json:"client_id"`
	Status              Status            `json:"status"`
	IsLocked            bool              `json:"is_locked"`
	Deadline            deadline.Captured `json:"deadline"`
	AccumulatedSeconds  int64             `json:"accumulated_seconds"`
	CheckpointTimestamp int64             `json:"checkpoint_timestamp"` // epoch seconds
	Quantity            int               `json:"quantity"`
	PricePerUnit        decimal.Decimal   `json:"price_per_unit"`
	TotalPrice          decimal.Decimal   `json:"total_price"`
	Instructions        string            `json:"instructions"`
	CreatedAt           time.Time         `json:"created_at"`
}

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNegativePrice   = errors.New("price per unit must not be negative")
	ErrDeadlineInPast  = errors.New("deadline must not be in the past")
	ErrMissingClient   = errors.New("client is required")
)

// Draft is an order being composed. TotalPrice is recomputed on every change
// to quantity or price per unit, mirroring the reactive total in the creation
// form.
type Draft struct {
	ClientID     string
	Quantity     int
	PricePerUnit decimal.Decimal
	TotalPrice   decimal.Decimal
	Instructions string
	Deadline     deadline.Captured
}

func (d *Draft) SetQuantity(q int) {
	d.Quantity = q
	d.recompute()
}

func (d *Draft) SetPricePerUnit(p decimal.Decimal) {
	d.PricePerUnit = p
	d.recompute()
}

func (d *Draft) recompute() {
	d.TotalPrice = d.PricePerUnit.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// Validate checks the draft against the creation rules. The deadline is
// checked against now with the picker constraint.
func (d *Draft) Validate(now time.Time) error {
	if d.ClientID == "" {
		return ErrMissingClient
	}
	if d.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if d.PricePerUnit.IsNegative() {
		return ErrNegativePrice
	}
	instant, err := d.Deadline.Instant()
	if err != nil {
		return err
	}
	if !deadline.Selectable(instant, now) {
		return ErrDeadlineInPast
	}
	return nil
}
