package models

import (
	"strings"
	"time"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Enterprise is sold as unlimited; the cap only keeps the column finite.
var planQuotaLimits = map[Plan]int{
	PlanFree:       10,
	PlanPro:        100,
	PlanEnterprise: 1000000,
}

func ParsePlan(s string) (Plan, bool) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	_, ok := planQuotaLimits[p]
	return p, ok
}

// QuotaLimit returns the number of optimizations a plan allows.
// Unknown plans get the free tier limit.
func (p Plan) QuotaLimit() int {
	if limit, ok := planQuotaLimits[p]; ok {
		return limit
	}
	return planQuotaLimits[PlanFree]
}

type User struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	Name           string    `json:"name" db:"name"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	YoutubeChannel *string   `json:"youtube_channel" db:"youtube_channel"`
	Bio            *string   `json:"bio" db:"bio"`
	Avatar         *string   `json:"avatar" db:"avatar"`
	Plan           Plan      `json:"plan" db:"plan"`
	QuotaUsed      int       `json:"quota_used" db:"quota_used"`
	QuotaLimit     int       `json:"quota_limit" db:"quota_limit"`
	RefreshToken   *string   `json:"-" db:"refresh_token"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) QuotaExceeded() bool {
	return u.QuotaUsed >= u.QuotaLimit
}

// QuotaPercentage is the share of the quota already consumed, in percent.
func (u *User) QuotaPercentage() float64 {
	if u.QuotaLimit <= 0 {
		return 100
	}
	return float64(u.QuotaUsed) / float64(u.QuotaLimit) * 100
}
