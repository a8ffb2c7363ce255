package models

// Book is an entry in the reading log
type Book struct {
	ID            int64   `json:"id" db:"id"`
	ISBN          *string `json:"isbn" db:"isbn"`
	Title         string  `json:"title" db:"title"`
	Author        string  `json:"author" db:"author"`
	YearPublished *string `json:"year_published" db:"year_published"`
	DateRead      Date    `json:"date_read" db:"date_read"`
}

// TableName returns the table name for the Book model
func (Book) TableName() string {
	return "books"
}

// BookPatchableFields lists the keys a partial update may carry
var BookPatchableFields = []string{"isbn", "title", "author", "year_published", "date_read"}

// CreateBookRequest is the body accepted when adding a book.
// DateRead stays a string so the store decides whether it is a valid date.
type CreateBookRequest struct {
	ISBN          *string `json:"isbn" validate:"omitempty,max=50"`
	Title         string  `json:"title" validate:"required,max=500"`
	Author        string  `json:"author" validate:"required,max=200"`
	YearPublished *string `json:"year_published" validate:"omitempty,max=4"`
	DateRead      string  `json:"date_read" validate:"required"`
}
