package review

type CreateReviewRequest struct {
	TrainerID int64  `json:"trainer_id" binding:"required,gt=0"`
	BookingID *int64 `json:"booking_id,omitempty"`
	Rating    int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment   string `json:"comment,omitempty" binding:"omitempty,max=2000"`
}

type TrainerResponseRequest struct {
	Response string `json:"response" binding:"required,max=2000"`
}
