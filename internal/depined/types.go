package depined

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fystack/depined-agent/pkg/common/constant"
)

const unknown = "unknown"

// Envelope is the common response wrapper. Every field is optional.
type Envelope[T any] struct {
	Code    *int   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    *T     `json:"data,omitempty"`
}

// Succeeded reports whether the body carries the success code.
func (e *Envelope[T]) Succeeded() bool {
	return e != nil && e.Code != nil && *e.Code == constant.ClaimSuccessCode
}

func (e *Envelope[T]) Describe() string {
	if e == nil {
		return unknown
	}
	code := unknown
	if e.Code != nil {
		code = fmt.Sprint(*e.Code)
	}
	msg := e.Message
	if msg == "" {
		msg = unknown
	}
	return fmt.Sprintf("code=%s message=%s", code, msg)
}

type Profile struct {
	Email         *string             `json:"email"`
	Verified      *bool               `json:"verified"`
	CurrentTier   any                 `json:"current_tier"`
	PointsBalance decimal.NullDecimal `json:"points_balance"`
}

// UnmarshalJSON decodes every field on its own; a field of an unexpected type
// stays unknown instead of failing the whole profile.
func (p *Profile) UnmarshalJSON(b []byte) error {
	fields := objectFields(b)
	*p = Profile{
		Email:         field[*string](fields, "email"),
		Verified:      field[*bool](fields, "verified"),
		CurrentTier:   field[any](fields, "current_tier"),
		PointsBalance: field[decimal.NullDecimal](fields, "points_balance"),
	}
	return nil
}

func (p *Profile) EmailOrUnknown() string {
	if p == nil || p.Email == nil || *p.Email == "" {
		return unknown
	}
	return *p.Email
}

func (p *Profile) VerifiedOrUnknown() string {
	if p == nil || p.Verified == nil {
		return unknown
	}
	return fmt.Sprint(*p.Verified)
}

func (p *Profile) TierOrUnknown() string {
	if p == nil || p.CurrentTier == nil {
		return unknown
	}
	return fmt.Sprint(p.CurrentTier)
}

func (p *Profile) PointsOrUnknown() string {
	if p == nil {
		return unknown
	}
	return nullDecimalString(p.PointsBalance)
}

type ReferralStats struct {
	TotalUnclaimedPoints decimal.NullDecimal `json:"total_unclaimed_points"`
}

// UnmarshalJSON leaves the balance unknown when it is missing or not a number.
func (s *ReferralStats) UnmarshalJSON(b []byte) error {
	fields := objectFields(b)
	*s = ReferralStats{
		TotalUnclaimedPoints: field[decimal.NullDecimal](fields, "total_unclaimed_points"),
	}
	return nil
}

// Unclaimed returns the unclaimed balance and whether the API reported one.
func (s *ReferralStats) Unclaimed() (decimal.Decimal, bool) {
	if s == nil || !s.TotalUnclaimedPoints.Valid {
		return decimal.Zero, false
	}
	return s.TotalUnclaimedPoints.Decimal, true
}

// Earnings is the epoch earnings snapshot. The API shape is loose, so the raw
// payload is kept next to the fields we know about.
type Earnings struct {
	Epoch    any                 `json:"epoch"`
	Earnings decimal.NullDecimal `json:"earnings"`
	Raw      json.RawMessage     `json:"-"`
}

func (e *Earnings) UnmarshalJSON(b []byte) error {
	fields := objectFields(b)
	*e = Earnings{
		Epoch:    field[any](fields, "epoch"),
		Earnings: field[decimal.NullDecimal](fields, "earnings"),
		Raw:      append(json.RawMessage(nil), b...),
	}
	return nil
}

func (e *Earnings) Describe() string {
	if e == nil {
		return unknown
	}
	if !e.Earnings.Valid && len(e.Raw) > 0 {
		return string(e.Raw)
	}
	epoch := unknown
	if e.Epoch != nil {
		epoch = fmt.Sprint(e.Epoch)
	}
	return fmt.Sprintf("epoch=%s earnings=%s", epoch, nullDecimalString(e.Earnings))
}

// Ack is returned by the ping and claim endpoints.
type Ack = Envelope[json.RawMessage]

// objectFields splits a JSON object into its raw members. Anything that is not
// an object yields no fields.
func objectFields(b []byte) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil
	}
	return fields
}

// field decodes one member, returning the zero value when it is absent or of
// another type.
func field[T any](fields map[string]json.RawMessage, key string) T {
	var v T
	raw, ok := fields[key]
	if !ok {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return unknown
	}
	return d.Decimal.String()
}
