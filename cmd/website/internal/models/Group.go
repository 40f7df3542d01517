package models

type Group struct {
	Slug         string
	Title        string
	AlbumCount   int
	CoverURL     string
	CoverURL2x   string
	CoverThumb   string
	AlbumListURL string
}

func (g Group) HasCover() bool {
	return g.CoverURL != ""
}
