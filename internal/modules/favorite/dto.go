package favorite

import (
	"fitmarket/internal/domain"
	"time"
)

// FavoriteResponse — ответ с информацией об избранном
type FavoriteResponse struct {
	ID        int64         `json:"id"`
	TrainerID int64         `json:"trainer_id"`
	Trainer   *TrainerBrief `json:"trainer,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// TrainerBrief — краткая карточка тренера для списка избранного
type TrainerBrief struct {
	ID              int64    `json:"id"`
	DisplayName     string   `json:"display_name"`
	City            string   `json:"city,omitempty"`
	Rating          float64  `json:"rating"`
	TotalReviews    int      `json:"total_reviews"`
	Specializations []string `json:"specializations,omitempty"`
	PhotoURLs       []string `json:"photo_urls,omitempty"`
}

// FavoriteListResponse — ответ со списком избранного
type FavoriteListResponse struct {
	Favorites  []FavoriteResponse `json:"favorites"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

// CheckFavoriteResponse — ответ на проверку "в избранном ли"
type CheckFavoriteResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

// ToFavoriteResponse конвертирует domain.Favorite в API response
func ToFavoriteResponse(f *domain.Favorite) FavoriteResponse {
	resp := FavoriteResponse{
		ID:        f.ID,
		TrainerID: f.TrainerID,
		CreatedAt: f.CreatedAt,
	}

	if f.Trainer != nil {
		resp.Trainer = &TrainerBrief{
			ID:              f.Trainer.UserID,
			DisplayName:     f.Trainer.DisplayName,
			City:            f.Trainer.City,
			Rating:          f.Trainer.Rating,
			TotalReviews:    f.Trainer.TotalReviews,
			Specializations: f.Trainer.Specializations,
			PhotoURLs:       f.Trainer.PhotoURLs,
		}
	}

	return resp
}

// ToFavoriteListResponse конвертирует slice favorites в paginated response
func ToFavoriteListResponse(favorites []domain.Favorite, total int64, page, perPage int) FavoriteListResponse {
	items := make([]FavoriteResponse, len(favorites))
	for i, f := range favorites {
		items[i] = ToFavoriteResponse(&f)
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	return FavoriteListResponse{
		Favorites:  items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}
}
