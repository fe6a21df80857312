package jsonl

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// Codec maps records to and from a single JSON line.
type Codec[V any] interface {
	// Key returns the record's unique key within its collection.
	Key(v V) string

	// Marshal encodes a record as one JSON object without a trailing newline.
	Marshal(v V) ([]byte, error)

	// Unmarshal decodes one line. Invalid records return an error.
	Unmarshal(line []byte) (V, error)
}

// dtoCodec converts through a wire struct D that carries the json tags.
type dtoCodec[V, D any] struct {
	key  func(V) string
	to   func(V) D
	from func(D) (V, error)
}

func (c dtoCodec[V, D]) Key(v V) string {
	return c.key(v)
}

func (c dtoCodec[V, D]) Marshal(v V) ([]byte, error) {
	return json.Marshal(c.to(v))
}

func (c dtoCodec[V, D]) Unmarshal(line []byte) (V, error) {
	var d D
	if err := json.Unmarshal(line, &d); err != nil {
		var zero V
		return zero, err
	}
	return c.from(d)
}

type accountRecord struct {
	ID      string    `json:"id"`
	Balance int64     `json:"balance"`
	AddedBy string    `json:"added_by,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// AccountCodec encodes operator accounts keyed by operator ID.
var AccountCodec Codec[domain.OperatorAccount] = dtoCodec[domain.OperatorAccount, accountRecord]{
	key: func(a domain.OperatorAccount) string { return a.ID },
	to: func(a domain.OperatorAccount) accountRecord {
		return accountRecord{ID: a.ID, Balance: a.Balance, AddedBy: a.AddedBy, AddedAt: a.AddedAt}
	},
	from: func(r accountRecord) (domain.OperatorAccount, error) {
		if r.ID == "" {
			return domain.OperatorAccount{}, errors.New("account without id")
		}
		if r.Balance < 0 {
			return domain.OperatorAccount{}, fmt.Errorf("account %s has negative balance %d", r.ID, r.Balance)
		}
		return domain.OperatorAccount{ID: r.ID, Balance: r.Balance, AddedBy: r.AddedBy, AddedAt: r.AddedAt}, nil
	},
}

type tokenRecord struct {
	Token           string    `json:"token"`
	DurationSeconds int64     `json:"duration_seconds"`
	Plan            string    `json:"plan"`
	IssuedBy        string    `json:"issued_by,omitempty"`
	IssuedAt        time.Time `json:"issued_at"`
}

// TokenCodec encodes licence tokens keyed by token string.
// Durations are stored as whole seconds.
var TokenCodec Codec[domain.LicenseToken] = dtoCodec[domain.LicenseToken, tokenRecord]{
	key: func(t domain.LicenseToken) string { return t.Token },
	to: func(t domain.LicenseToken) tokenRecord {
		return tokenRecord{
			Token:           t.Token,
			DurationSeconds: int64(t.Duration / time.Second),
			Plan:            t.Plan,
			IssuedBy:        t.IssuedBy,
			IssuedAt:        t.IssuedAt,
		}
	},
	from: func(r tokenRecord) (domain.LicenseToken, error) {
		if r.Token == "" {
			return domain.LicenseToken{}, errors.New("token without value")
		}
		if r.DurationSeconds <= 0 {
			return domain.LicenseToken{}, fmt.Errorf("token %s has non-positive duration", r.Token)
		}
		return domain.LicenseToken{
			Token:    r.Token,
			Duration: time.Duration(r.DurationSeconds) * time.Second,
			Plan:     r.Plan,
			IssuedBy: r.IssuedBy,
			IssuedAt: r.IssuedAt,
		}, nil
	},
}

type grantRecord struct {
	SubjectID  string    `json:"subject_id"`
	ValidUntil time.Time `json:"valid_until"`
	Plan       string    `json:"plan"`
	GrantedAt  time.Time `json:"granted_at"`
}

// GrantCodec encodes access grants keyed by subject ID.
var GrantCodec Codec[domain.AccessGrant] = dtoCodec[domain.AccessGrant, grantRecord]{
	key: func(g domain.AccessGrant) string { return g.SubjectID },
	to: func(g domain.AccessGrant) grantRecord {
		return grantRecord{SubjectID: g.SubjectID, ValidUntil: g.ValidUntil, Plan: g.Plan, GrantedAt: g.GrantedAt}
	},
	from: func(r grantRecord) (domain.AccessGrant, error) {
		if r.SubjectID == "" {
			return domain.AccessGrant{}, errors.New("grant without subject")
		}
		if r.ValidUntil.IsZero() {
			return domain.AccessGrant{}, fmt.Errorf("grant for %s has no expiry", r.SubjectID)
		}
		return domain.AccessGrant{SubjectID: r.SubjectID, ValidUntil: r.ValidUntil, Plan: r.Plan, GrantedAt: r.GrantedAt}, nil
	},
}

type redemptionRecord struct {
	Token      string    `json:"token"`
	SubjectID  string    `json:"subject_id"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// RedemptionCodec encodes consumed tokens keyed by token string.
var RedemptionCodec Codec[domain.RedemptionRecord] = dtoCodec[domain.RedemptionRecord, redemptionRecord]{
	key: func(r domain.RedemptionRecord) string { return r.Token },
	to: func(r domain.RedemptionRecord) redemptionRecord {
		return redemptionRecord{Token: r.Token, SubjectID: r.SubjectID, RedeemedAt: r.RedeemedAt}
	},
	from: func(r redemptionRecord) (domain.RedemptionRecord, error) {
		if r.Token == "" {
			return domain.RedemptionRecord{}, errors.New("redemption without token")
		}
		return domain.RedemptionRecord{Token: r.Token, SubjectID: r.SubjectID, RedeemedAt: r.RedeemedAt}, nil
	},
}
