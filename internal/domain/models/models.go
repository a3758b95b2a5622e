package models

import (
	"reelrate/proj/internal/domain/fields"
	"time"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Movie struct {
	ID          string               `json:"id"`                    // Unique ID assigned by the backend
	Title       string               `json:"title"`                 // Movie title
	Year        int32                `json:"year,omitempty"`        // Movie release year
	Genre       string               `json:"genre,omitempty"`       // Single genre label (i.e. Comedy, drama, scifi)
	Description string               `json:"description,omitempty"` // Short free-text description
	CreatedBy   string               `json:"createdBy,omitempty"`   // ID of the user who added the movie
	Rating      *fields.AverageRating `json:"rating,omitempty"`     // Merged from the rating endpoint, nil until fetched
	RatingCount int                  `json:"ratingCount,omitempty"` // Number of reviews behind Rating
}

type Rating struct {
	AvgRating *fields.AverageRating `json:"avgRating"`
	Count     int                   `json:"count"`
}

type Review struct {
	ID        string    `json:"id"`
	MovieID   string    `json:"movieId,omitempty"`
	Author    User      `json:"user"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// OwnedBy reports whether the movie's edit/delete controls belong to user.
func (m *Movie) OwnedBy(user *User) bool {
	return user != nil && m.CreatedBy != "" && m.CreatedBy == user.ID
}

func (r *Review) OwnedBy(user *User) bool {
	return user != nil && r.Author.ID != "" && r.Author.ID == user.ID
}
