package gallery

/*
Scope addresses a group, an album inside a group, or a photo inside an album.
*/
type Scope struct {
	Group string
	Album string
	Photo string
}

func GroupScope(group string) Scope {
	return Scope{Group: group}
}

func AlbumScope(group, album string) Scope {
	return Scope{Group: group, Album: album}
}

func PhotoScope(group, album, photo string) Scope {
	return Scope{Group: group, Album: album, Photo: photo}
}

func (s Scope) IsGroup() bool {
	return s.Album == "" && s.Photo == ""
}

func (s Scope) IsAlbum() bool {
	return s.Album != "" && s.Photo == ""
}

func (s Scope) IsPhoto() bool {
	return s.Album != "" && s.Photo != ""
}

func (s Scope) Kind() string {
	switch {
	case s.IsPhoto():
		return "photo"
	case s.IsAlbum():
		return "album"
	default:
		return "group"
	}
}

func (s Scope) validate() error {
	if s.Group == "" {
		return &ValidationError{Field: "group", Message: "group is required"}
	}

	if s.Photo != "" && s.Album == "" {
		return &ValidationError{Field: "album", Message: "album is required"}
	}

	return nil
}
