// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Review は食レビューを表す。
// IDとPostedAtはリモートストアが採番・付与する。
// OwnerEmailは作成後に変更されない。
type Review struct {
	ID             string    `json:"_id"`
	FoodName       string    `json:"foodName"`
	FoodImage      string    `json:"foodImage"`
	RestaurantName string    `json:"restaurantName"`
	Location       string    `json:"location"`
	Rating         int       `json:"rating"`
	ReviewText     string    `json:"reviewText"`
	OwnerEmail     string    `json:"userEmail"`
	ReviewerName   string    `json:"reviewerName"`
	ReviewerPhoto  string    `json:"reviewerPhoto"`
	PostedAt       time.Time `json:"postedDate"`
}

// ReviewPayload はレビューの作成・更新時にユーザーが入力する値。
type ReviewPayload struct {
	FoodName       string `json:"foodName"`
	FoodImage      string `json:"foodImage"`
	RestaurantName string `json:"restaurantName"`
	Location       string `json:"location"`
	Rating         int    `json:"rating"`
	ReviewText     string `json:"reviewText"`
}

// Validate はレビュー入力値を検証する。
// 全フィールド必須、rating は1〜5の整数。
// 違反時はValidationErrorを返し、リモート呼び出しは行われない。
func (p *ReviewPayload) Validate() error {
	if strings.TrimSpace(p.FoodName) == "" {
		return NewValidationError("料理名は必須です")
	}
	if strings.TrimSpace(p.FoodImage) == "" {
		return NewValidationError("料理画像URLは必須です")
	}
	if strings.TrimSpace(p.RestaurantName) == "" {
		return NewValidationError("店舗名は必須です")
	}
	if strings.TrimSpace(p.Location) == "" {
		return NewValidationError("所在地は必須です")
	}
	if p.Rating < 1 || p.Rating > 5 {
		return NewValidationError("評価は1〜5の星で指定してください")
	}
	if strings.TrimSpace(p.ReviewText) == "" {
		return NewValidationError("レビュー本文は必須です")
	}
	return nil
}
