package model

import (
	"strings"
	"time"
)

// RewardCategories is the fixed set offered by the catalog form.
var RewardCategories = []string{
	"Merchandise",
	"Coupons",
	"Experience",
	"Vouchers",
	"Electronics",
	"Other",
}

// LowStockThreshold marks catalog items that are running out.
const LowStockThreshold = 5

type PointRule struct {
	ID       string `json:"_id,omitempty"`
	Category string `json:"category"`
	Points   int    `json:"points"`
}

type RewardItem struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PointsCost  int    `json:"pointsCost"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl,omitempty"`
	IsActive    bool   `json:"isActive"`
}

func (r RewardItem) LowStock() bool {
	return r.Stock < LowStockThreshold
}

func (r RewardItem) StatusLabel() string {
	if r.IsActive {
		return "Active"
	}
	return "Inactive"
}

type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionFulfilled RedemptionStatus = "fulfilled"
)

type StudentRef struct {
	ID         string `json:"_id,omitempty"`
	Name       string `json:"name"`
	RollNo     string `json:"rollNo"`
	Department string `json:"department"`
	Batch      string `json:"batch"`
}

type RewardRef struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PointsCost int    `json:"pointsCost"`
}

// ShortID is the abbreviated reward id shown in the history table.
func (r RewardRef) ShortID() string {
	if len(r.ID) > 8 {
		return r.ID[:8]
	}
	return r.ID
}

// Redemption is a student's claim against a catalog item. The only
// transition is pending -> fulfilled.
type Redemption struct {
	ID         string           `json:"_id"`
	Student    StudentRef       `json:"studentId"`
	Reward     RewardRef        `json:"rewardId"`
	Status     RedemptionStatus `json:"status"`
	RedeemedAt time.Time        `json:"redeemedAt"`
}

func (r Redemption) Fulfilled() bool {
	return r.Status == RedemptionFulfilled
}

// Point rule icon classes.
const (
	IconWinner        = "winner"
	IconCertification = "certification"
	IconParticipation = "participation"
	IconEvent         = "event"
	IconOther         = "other"
)

// RuleIcon classifies a point-rule category for its table icon.
func RuleIcon(category string) string {
	c := strings.ToLower(category)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(c, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("winner", "1st", "first"):
		return IconWinner
	case has("certification", "course"):
		return IconCertification
	case has("runner", "participation"):
		return IconParticipation
	case has("competition", "event"):
		return IconEvent
	}
	return IconOther
}
