package models

import (
	"net/url"
	"regexp"
)

var timestampPrefix = regexp.MustCompile(`^\d{10,}[-_]`)

type Photo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

/*
DisplayName strips the upload timestamp prefix the server puts on storage
keys and percent-decodes what is left.
*/
func (p Photo) DisplayName() string {
	name := timestampPrefix.ReplaceAllString(p.Name, "")

	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}

	return name
}
