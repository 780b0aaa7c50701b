package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CouponRepository implements domain.CouponRepository using PostgreSQL.
type CouponRepository struct {
	db database.DBTX
}

func NewCouponRepository(db database.DBTX) *CouponRepository {
	return &CouponRepository{db: db}
}

// GetByCode looks a coupon up case-insensitively.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (c *domain.Coupon, err error) {
	query := `
		SELECT id, code, type, value, min_order_amount, max_discount_amount,
		       usage_limit, usage_count, active, starts_at, ends_at
		FROM coupons
		WHERE UPPER(code) = $1`

	ctx, end := database.TraceQuery(ctx, "coupons.get_by_code", query)
	defer func() { end(err) }()

	var coupon domain.Coupon
	err = r.db.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Type,
		&coupon.Value,
		&coupon.MinOrderAmount,
		&coupon.MaxDiscountAmount,
		&coupon.UsageLimit,
		&coupon.UsageCount,
		&coupon.Active,
		&coupon.StartsAt,
		&coupon.EndsAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("coupon", code)
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &coupon, nil
}
