package models

// Famous is a catalog entry revealed to every player except the spy
type Famous struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Category string `json:"category,omitempty"`
}
