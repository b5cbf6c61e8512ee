package models

type Book struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Year            int      `json:"year"`
	ISBN            string   `json:"isbn"`
	TotalCopies     int      `json:"total_copies"`
	AvailableCopies int      `json:"available_copies"`
	Genres          []string `json:"genres,omitempty"`
	Description     string   `json:"description,omitempty"`
	CoverURL        string   `json:"cover_url,omitempty"`
}

func (b *Book) Available() bool {
	return b.AvailableCopies > 0
}
