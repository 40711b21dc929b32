package checkout

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrCouponEmpty is a notice: no code was entered, nothing changed.
	ErrCouponEmpty = errors.New("enter a coupon code")
	// ErrCouponInvalid means the code was not recognised and any previous
	// discount has been removed.
	ErrCouponInvalid = errors.New("coupon code is not valid")
)

// CouponDecision is the result of a recognised code.
type CouponDecision struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// CouponPolicy decides whether a code grants a discount on original.
type CouponPolicy interface {
	Evaluate(code string, original decimal.Decimal) (CouponDecision, bool)
}

// PercentCoupon grants a fixed percentage off for one case-insensitive code.
type PercentCoupon struct {
	Code    string
	Percent decimal.Decimal
}

// DefaultCoupon is the storefront's promotional code: 10% off.
var DefaultCoupon = PercentCoupon{Code: "DISKON10", Percent: decimal.NewFromInt(10)}

// Evaluate implements CouponPolicy.
func (p PercentCoupon) Evaluate(code string, original decimal.Decimal) (CouponDecision, bool) {
	if p.Code == "" || !strings.EqualFold(strings.TrimSpace(code), p.Code) {
		return CouponDecision{}, false
	}
	discount := original.Mul(p.Percent).Div(decimal.NewFromInt(100))
	return CouponDecision{Code: strings.ToUpper(p.Code), Discount: discount}, true
}

// Coupons is a policy that accepts any of its member policies, first match wins.
type Coupons []CouponPolicy

// Evaluate implements CouponPolicy.
func (cs Coupons) Evaluate(code string, original decimal.Decimal) (CouponDecision, bool) {
	for _, c := range cs {
		if d, ok := c.Evaluate(code, original); ok {
			return d, true
		}
	}
	return CouponDecision{}, false
}
