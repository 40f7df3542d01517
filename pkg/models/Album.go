package models

/*
Album is a named photo collection owned by exactly one Group. Its slug is
unique within the parent group only.
*/
type Album struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	CoverURL string `json:"coverUrl,omitempty"`
}
