package models

type Photo struct {
	Name        string
	DisplayName string
	ThumbURL    string
	OriginalURL string
	DeleteURL   string
}
