package models

/*
Group is a top-level collection of albums, e.g. an event series. The slug is
minted by the server on creation and never recomputed afterwards, even when
the title changes.
*/
type Group struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	CoverURL   string `json:"coverUrl,omitempty"`
	AlbumCount int    `json:"albumCount"`
}
