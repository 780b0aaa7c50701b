package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CouponRepository keeps coupons keyed by upper-case code.
type CouponRepository struct {
	mu      sync.RWMutex
	coupons map[string]domain.Coupon
}

func NewCouponRepository(coupons ...domain.Coupon) *CouponRepository {
	r := &CouponRepository{coupons: make(map[string]domain.Coupon, len(coupons))}
	for _, c := range coupons {
		r.coupons[strings.ToUpper(c.Code)] = c
	}
	return r
}

func (r *CouponRepository) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, apperrors.NotFound("coupon", code)
	}
	return &c, nil
}
