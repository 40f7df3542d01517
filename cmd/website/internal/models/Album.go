package models

type Album struct {
	Slug         string
	Title        string
	CoverURL     string
	CoverURL2x   string
	CoverThumb   string
	PhotoListURL string
}

func (a Album) HasCover() bool {
	return a.CoverURL != ""
}
