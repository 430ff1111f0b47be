package catalog

// ---------- TRAINER PROFILE ----------

// UpdateTrainerProfileRequest — частичное обновление анкеты:
// nil-поля не трогаем.
type UpdateTrainerProfileRequest struct {
	DisplayName     *string   `json:"display_name,omitempty" binding:"omitempty,min=2,max=100"`
	Bio             *string   `json:"bio,omitempty"`
	City            *string   `json:"city,omitempty" binding:"omitempty,min=2"`
	Address         *string   `json:"address,omitempty"`
	Specializations *[]string `json:"specializations,omitempty"`
	Certifications  *[]string `json:"certifications,omitempty"`
	PhotoURLs       *[]string `json:"photo_urls,omitempty"`
	ExperienceYears *int      `json:"experience_years,omitempty" binding:"omitempty,min=0,max=60"`
}

// ---------- SERVICES ----------

type CreateServiceRequest struct {
	Name            string  `json:"name" binding:"required,min=2,max=120"`
	Description     string  `json:"description"`
	HourlyPrice     float64 `json:"hourly_price" binding:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=15,max=480"`
}

type UpdateServiceRequest struct {
	Name            *string  `json:"name,omitempty" binding:"omitempty,min=2,max=120"`
	Description     *string  `json:"description,omitempty"`
	HourlyPrice     *float64 `json:"hourly_price,omitempty" binding:"omitempty,gte=0"`
	DurationMinutes *int     `json:"duration_minutes,omitempty" binding:"omitempty,min=15,max=480"`
}
