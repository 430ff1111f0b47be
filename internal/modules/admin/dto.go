package admin

import "fitmarket/internal/domain"

type VerifyTrainerRequest struct {
	AdminNotes string `json:"admin_notes"`
}

type RejectTrainerRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type BlockUserRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type UserListFilter struct {
	Role   string `form:"role"`
	Banned *bool  `form:"banned"`
	Query  string `form:"q"` // name/email contains
}

type UserListResponse struct {
	Users []domain.User `json:"users"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type StatisticsResponse struct {
	TotalUsers                 int     `json:"total_users"`
	TotalTrainers              int     `json:"total_trainers"`
	TotalBookings              int     `json:"total_bookings"`
	TotalSessions              int     `json:"total_sessions"`
	PendingTrainers            int     `json:"pending_trainers"`
	TodayBookings              int     `json:"today_bookings"`
	CompletedSessionsThisMonth int     `json:"completed_sessions_this_month"`
	TotalRevenue               float64 `json:"total_revenue"`
}
