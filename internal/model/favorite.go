// Package model はドメインモデルを定義する。
package model

// Favorite はお気に入り登録を表す。
// 登録時点のレビュー表示情報を非正規化スナップショットとして保持し、
// 元のReviewが後から変更されても追従しない。
// (OwnerEmail, ReviewID) の組はストア側で一意に保たれる。
type Favorite struct {
	ID             string `json:"_id"`
	OwnerEmail     string `json:"userEmail"`
	ReviewID       string `json:"reviewId"`
	FoodName       string `json:"foodName"`
	FoodImage      string `json:"foodImage"`
	RestaurantName string `json:"restaurantName"`
	Location       string `json:"location"`
	Rating         int    `json:"rating"`
	ReviewerName   string `json:"reviewerName"`
}

// NewFavoriteSnapshot はレビューからお気に入りスナップショットを作成する。
// IDはリモートストアが採番するため空のまま送信する。
func NewFavoriteSnapshot(ownerEmail string, review *Review) *Favorite {
	return &Favorite{
		OwnerEmail:     ownerEmail,
		ReviewID:       review.ID,
		FoodName:       review.FoodName,
		FoodImage:      review.FoodImage,
		RestaurantName: review.RestaurantName,
		Location:       review.Location,
		Rating:         review.Rating,
		ReviewerName:   review.ReviewerName,
	}
}
