// Package checkout implements the buyer / ticket-holder form that sits
// between a finalised ticket selection and payment.
package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/shopspring/decimal"
)

// BuyerField names a directly editable buyer field.
type BuyerField string

const (
	FullName    BuyerField = "full_name"
	Email       BuyerField = "email"
	Gender      BuyerField = "gender"
	DateOfBirth BuyerField = "date_of_birth"
)

// HolderField names an editable ticket-holder field.
type HolderField string

const (
	HolderName    HolderField = "full_name"
	HolderContact HolderField = "contact"
)

// DefaultCountryCode is preselected in the phone input.
const DefaultCountryCode = "+62"

// CountryCodes lists the dialling codes offered by the phone input.
var CountryCodes = []string{"+62", "+1", "+44", "+65", "+61", "+81"}

const dateLayout = "2006-01-02"

var (
	ErrUnknownField       = errors.New("unknown form field")
	ErrUnknownCountryCode = errors.New("unsupported country code")
	ErrHolderIndex        = errors.New("ticket holder index out of range")
	// ErrHolderSynced is returned when writing to a holder that mirrors the
	// buyer. The write is discarded.
	ErrHolderSynced = errors.New("ticket holder is synced to the buyer")
)

// Form is the checkout form state for one CheckoutInfo.
type Form struct {
	info   model.CheckoutInfo
	policy CouponPolicy

	buyer       model.BuyerRecord
	countryCode string
	localDigits string

	// holders stores manual entries only; synced entries are derived from
	// the buyer whenever they are read.
	holders []model.TicketHolderRecord

	coupon *CouponDecision
}

// NewForm creates a blank form sized to the checkout's ticket count.
// A nil policy accepts no coupon at all.
func NewForm(info model.CheckoutInfo, policy CouponPolicy) *Form {
	if policy == nil {
		policy = Coupons{}
	}
	f := &Form{info: info, policy: policy, countryCode: DefaultCountryCode}
	f.InitHolders(info.TotalQuantity())
	return f
}

// Info returns the checkout the form was opened for.
func (f *Form) Info() model.CheckoutInfo { return f.info }

// Buyer returns the buyer record with the composed phone number.
func (f *Form) Buyer() model.BuyerRecord {
	b := f.buyer
	b.Phone = f.countryCode + f.localDigits
	return b
}

// PhoneParts returns the country code and the local digits.
func (f *Form) PhoneParts() (string, string) { return f.countryCode, f.localDigits }

// UpdateBuyerField writes one buyer field.
func (f *Form) UpdateBuyerField(field BuyerField, value string) error {
	switch field {
	case FullName:
		f.buyer.FullName = value
	case Email:
		f.buyer.Email = value
	case Gender:
		f.buyer.Gender = value
	case DateOfBirth:
		f.buyer.DateOfBirth = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// SetPhoneParts sets the dialling code and the local number. Non-digit
// characters are dropped from the local part.
func (f *Form) SetPhoneParts(countryCode, local string) error {
	if !knownCountryCode(countryCode) {
		return fmt.Errorf("%w: %q", ErrUnknownCountryCode, countryCode)
	}
	f.countryCode = countryCode
	f.localDigits = digitsOnly(local)
	return nil
}

// InitHolders replaces every holder with n blank, unsynced entries.
func (f *Form) InitHolders(n int) {
	if n < 0 {
		n = 0
	}
	f.holders = make([]model.TicketHolderRecord, n)
}

// Holders returns the effective holder records: synced entries carry the
// buyer's current name and phone.
func (f *Form) Holders() []model.TicketHolderRecord {
	buyer := f.Buyer()
	out := make([]model.TicketHolderRecord, len(f.holders))
	for i, h := range f.holders {
		if h.SyncedToBuyer {
			h.FullName = buyer.FullName
			h.Contact = buyer.Phone
		}
		out[i] = h
	}
	return out
}

// ToggleSync flips the sync flag of holder i. Turning sync off keeps the
// mirrored values so they can be edited by hand.
func (f *Form) ToggleSync(i int) (bool, error) {
	if i < 0 || i >= len(f.holders) {
		return false, ErrHolderIndex
	}
	if f.holders[i].SyncedToBuyer {
		f.holders[i] = f.Holders()[i]
		f.holders[i].SyncedToBuyer = false
		return false, nil
	}
	f.holders[i].SyncedToBuyer = true
	return true, nil
}

// UpdateHolderField writes a field of an unsynced holder.
func (f *Form) UpdateHolderField(i int, field HolderField, value string) error {
	if i < 0 || i >= len(f.holders) {
		return ErrHolderIndex
	}
	if f.holders[i].SyncedToBuyer {
		return ErrHolderSynced
	}
	switch field {
	case HolderName:
		f.holders[i].FullName = value
	case HolderContact:
		f.holders[i].Contact = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// ApplyCoupon evaluates code against the original total. A recognised code
// replaces any previous discount, an unrecognised one clears it and an
// empty one changes nothing.
func (f *Form) ApplyCoupon(code string) (CouponDecision, error) {
	if strings.TrimSpace(code) == "" {
		return CouponDecision{}, ErrCouponEmpty
	}
	d, ok := f.policy.Evaluate(code, f.info.TotalPrice)
	if !ok {
		f.coupon = nil
		return CouponDecision{}, ErrCouponInvalid
	}
	f.coupon = &d
	return d, nil
}

// Coupon returns the applied coupon, if any.
func (f *Form) Coupon() (CouponDecision, bool) {
	if f.coupon == nil {
		return CouponDecision{}, false
	}
	return *f.coupon, true
}

// OriginalPrice is the checkout total before any coupon.
func (f *Form) OriginalPrice() decimal.Decimal { return f.info.TotalPrice }

// EffectivePrice is the payable total after the applied coupon.
func (f *Form) EffectivePrice() decimal.Decimal {
	if f.coupon == nil {
		return f.info.TotalPrice
	}
	p := f.info.TotalPrice.Sub(f.coupon.Discount)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// IsDirty reports whether leaving the form would lose user input.
func (f *Form) IsDirty() bool {
	b := f.buyer
	if b.FullName != "" || b.Email != "" || b.Gender != "" || b.DateOfBirth != "" {
		return true
	}
	if f.localDigits != "" || f.countryCode != DefaultCountryCode {
		return true
	}
	for _, h := range f.holders {
		if h.SyncedToBuyer || !h.IsBlank() {
			return true
		}
	}
	return false
}

// Reset restores a blank form, keeping the checkout and the coupon policy.
func (f *Form) Reset() {
	f.buyer = model.BuyerRecord{}
	f.countryCode = DefaultCountryCode
	f.localDigits = ""
	f.coupon = nil
	f.InitHolders(f.info.TotalQuantity())
}

// Validate returns every missing or invalid field, or nil.
func (f *Form) Validate() error {
	var fields []string
	b := f.buyer
	if strings.TrimSpace(b.FullName) == "" {
		fields = append(fields, string(FullName))
	}
	if e := strings.TrimSpace(b.Email); e == "" || !isValidEmail(e) {
		fields = append(fields, string(Email))
	}
	if f.localDigits == "" {
		fields = append(fields, "phone_number")
	}
	if strings.TrimSpace(b.Gender) == "" {
		fields = append(fields, string(Gender))
	}
	if _, err := time.Parse(dateLayout, strings.TrimSpace(b.DateOfBirth)); err != nil {
		fields = append(fields, string(DateOfBirth))
	}
	for i, h := range f.holders {
		if h.SyncedToBuyer {
			continue
		}
		if strings.TrimSpace(h.FullName) == "" {
			fields = append(fields, fmt.Sprintf("holders[%d].%s", i, HolderName))
		}
		if strings.TrimSpace(h.Contact) == "" {
			fields = append(fields, fmt.Sprintf("holders[%d].%s", i, HolderContact))
		}
	}
	if len(fields) > 0 {
		return &model.ValidationError{Fields: fields}
	}
	return nil
}

// Submit validates the form and produces the submission handed to payment.
// The submission's checkout carries the effective price as its total.
func (f *Form) Submit() (model.Submission, error) {
	if err := f.Validate(); err != nil {
		return model.Submission{}, err
	}
	return model.Submission{
		Checkout: f.info.WithTotal(f.EffectivePrice()),
		Buyer:    f.Buyer(),
		Holders:  f.Holders(),
	}, nil
}

func knownCountryCode(code string) bool {
	for _, c := range CountryCodes {
		if c == code {
			return true
		}
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
