package models

// Degree is an entry in the education log
type Degree struct {
	ID            int64   `json:"id" db:"id"`
	Institution   string  `json:"institution" db:"institution"`
	Title         string  `json:"title" db:"title"`
	Category      string  `json:"category" db:"category"`
	YearCompleted string  `json:"year_completed" db:"year_completed"`
	Location      *string `json:"location" db:"location"`
	URL           *string `json:"url" db:"url"`
}

// TableName returns the table name for the Degree model
func (Degree) TableName() string {
	return "degrees"
}

// DegreePatchableFields lists the keys a partial update may carry
var DegreePatchableFields = []string{"institution", "title", "category", "year_completed", "url", "location"}

// CreateDegreeRequest is the body accepted when adding a degree
type CreateDegreeRequest struct {
	Institution   string  `json:"institution" validate:"required,max=200"`
	Title         string  `json:"title" validate:"required,max=500"`
	Category      string  `json:"category" validate:"required,max=50"`
	YearCompleted string  `json:"year_completed" validate:"required,max=4"`
	Location      *string `json:"location" validate:"omitempty,max=200"`
	URL           *string `json:"url" validate:"omitempty,max=1024"`
}
