package domain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"
)

// Coupon type constants.
const (
	CouponTypePercentage   = "percentage"
	CouponTypeFixedAmount  = "fixed_amount"
	CouponTypeFreeShipping = "free_shipping"
)

// Coupon rejection reasons.
var (
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponNotStarted  = errors.New("coupon is not valid yet")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponMinOrder    = errors.New("order total is below the coupon minimum")
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
	ErrCouponUnsupported = errors.New("unsupported coupon type")
)

// Coupon is a discount code. Value is in basis points for percentage coupons
// (1000 = 10%) and in cents for fixed-amount coupons. Zero limits mean
// "no limit".
type Coupon struct {
	ID                string     `json:"id"`
	Code              string     `json:"code"`
	Type              string     `json:"type"`
	Value             int64      `json:"value"`
	MinOrderAmount    int64      `json:"min_order_amount"`
	MaxDiscountAmount int64      `json:"max_discount_amount"`
	UsageLimit        int        `json:"usage_limit"`
	UsageCount        int        `json:"usage_count"`
	Active            bool       `json:"active"`
	StartsAt          *time.Time `json:"starts_at,omitempty"`
	EndsAt            *time.Time `json:"ends_at,omitempty"`
}

// CouponResult is the effect of a coupon on a subtotal.
type CouponResult struct {
	Code         string `json:"code"`
	Discount     int64  `json:"discount"`
	FreeShipping bool   `json:"free_shipping"`
}

// Validate checks c against subtotal at time now.
func (c *Coupon) Validate(subtotal int64, now time.Time) error {
	switch {
	case !c.Active:
		return ErrCouponInactive
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return ErrCouponNotStarted
	case c.EndsAt != nil && now.After(*c.EndsAt):
		return ErrCouponExpired
	case c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit:
		return ErrCouponExhausted
	case c.MinOrderAmount > 0 && subtotal < c.MinOrderAmount:
		return ErrCouponMinOrder
	}
	switch c.Type {
	case CouponTypePercentage, CouponTypeFixedAmount, CouponTypeFreeShipping:
		return nil
	default:
		return ErrCouponUnsupported
	}
}

// Discount returns the amount taken off subtotal, in cents. Percentage
// discounts are capped by MaxDiscountAmount when set; fixed discounts never
// exceed the subtotal.
func (c *Coupon) Discount(subtotal int64) int64 {
	switch c.Type {
	case CouponTypePercentage:
		d := subtotal * c.Value / 10000
		if c.MaxDiscountAmount > 0 && d > c.MaxDiscountAmount {
			d = c.MaxDiscountAmount
		}
		return d
	case CouponTypeFixedAmount:
		return min(c.Value, subtotal)
	default:
		return 0
	}
}

// Apply validates c and computes its effect on subtotal.
func (c *Coupon) Apply(subtotal int64, now time.Time) (CouponResult, error) {
	if err := c.Validate(subtotal, now); err != nil {
		return CouponResult{}, err
	}
	return CouponResult{
		Code:         c.Code,
		Discount:     c.Discount(subtotal),
		FreeShipping: c.Type == CouponTypeFreeShipping,
	}, nil
}

// CouponRepository looks coupons up by code.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
}

var nonCodeChars = regexp.MustCompile(`[^A-Z0-9-]`)

// GenerateCouponCode turns a campaign name into a code with a random 4-hex
// suffix: "Summer Sale" -> "SUMMER-SALE-3F9A".
func GenerateCouponCode(name string) string {
	code := strings.ToUpper(strings.TrimSpace(name))
	code = strings.NewReplacer(" ", "-", "_", "-").Replace(code)
	code = nonCodeChars.ReplaceAllString(code, "")
	for strings.Contains(code, "--") {
		code = strings.ReplaceAll(code, "--", "-")
	}
	code = strings.Trim(code, "-")

	const maxPrefix = 44
	if len(code) > maxPrefix {
		code = strings.TrimRight(code[:maxPrefix], "-")
	}

	b := make([]byte, 2)
	_, _ = rand.Read(b)
	suffix := strings.ToUpper(hex.EncodeToString(b))
	if code == "" {
		return suffix
	}
	return code + "-" + suffix
}
