package model

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	UUID         uuid.UUID `gorm:"column:uuid;type:uuid;primaryKey"`
	LoginID      string    `gorm:"column:login_id;size:100;not null;uniqueIndex:uq_accounts_login_id"`
	Email        string    `gorm:"column:email;size:255;not null;uniqueIndex:uq_accounts_email"`
	Nickname     string    `gorm:"column:nickname;size:100;not null;uniqueIndex:uq_accounts_nickname"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Account) TableName() string { return "accounts" }

// Public drops the password hash.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		UUID:     a.UUID,
		ID:       a.LoginID,
		Email:    a.Email,
		Nickname: a.Nickname,
	}
}

type PublicAccount struct {
	UUID     uuid.UUID `json:"uuid"`
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Nickname string    `json:"nickname"`
}

type RefreshToken struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	Account   Account    `gorm:"foreignKey:UserID;references:UUID;constraint:OnDelete:CASCADE"`
	Token     string     `gorm:"column:token;size:255;not null;uniqueIndex:uq_refresh_tokens_token;index:idx_refresh_tokens_token_revoked,priority:1"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at;index:idx_refresh_tokens_token_revoked,priority:2"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// Usable reports whether the token can still be exchanged at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

type SubscriptionPlan struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;size:100;not null"`
	DurationDays int       `gorm:"column:duration_days;not null"`
	Price        string    `gorm:"column:price;type:numeric(10,2);not null;default:0"`
	CreatedAt    time.Time
}

func (SubscriptionPlan) TableName() string { return "subscription_plans" }

type SubscriptionKeyStatus string

const (
	KeyActive  SubscriptionKeyStatus = "active"
	KeyExpired SubscriptionKeyStatus = "expired"
	KeyRevoked SubscriptionKeyStatus = "revoked"
)

// SubscriptionKey is a license key bound to an account and optionally to a plan.
// Keys go when their account is deleted.
type SubscriptionKey struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index:idx_subscription_keys_user_id"`
	Account    Account               `gorm:"foreignKey:UserID;references:UUID;constraint:OnDelete:CASCADE"`
	Key        string                `gorm:"column:key;size:255;not null;uniqueIndex:uq_subscription_keys_key"`
	PlanID     *uuid.UUID            `gorm:"column:plan_id;type:uuid"`
	Plan       *SubscriptionPlan     `gorm:"foreignKey:PlanID;references:ID"`
	ValidFrom  time.Time             `gorm:"column:valid_from;not null"`
	ValidUntil time.Time             `gorm:"column:valid_until;not null"`
	Status     SubscriptionKeyStatus `gorm:"column:status;size:16;not null;default:'active'"`
	CreatedAt  time.Time             `gorm:"column:created_at"`
}

func (SubscriptionKey) TableName() string { return "subscription_keys" }

// Valid reports whether the key grants access at now.
func (k SubscriptionKey) Valid(now time.Time) bool {
	return k.Status == KeyActive && !now.Before(k.ValidFrom) && now.Before(k.ValidUntil)
}

type LoginResult struct {
	BearerToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	Account      PublicAccount
}

type AccessResult struct {
	BearerToken string
	ExpiresIn   time.Duration
}
