package access

import (
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
)

/*
Gate decides whether mutation affordances are shown to a member. It is a
visibility rule only; the backend authorises every mutating request on its own.
*/
type Gate struct {
	Required      models.AccessLevel
	RequireEditor bool
}

/*
Allows reports whether the profile ranks at or above the required level and,
when RequireEditor is set, carries the editor flag. A nil profile is treated
as an anonymous visitor without editor rights.
*/
func (g Gate) Allows(profile *models.Profile) bool {
	level := models.LevelVisitor
	editor := false

	if profile != nil {
		level = profile.AccessLevel
		editor = profile.Editor
	}

	if level.Rank() < g.Required.Rank() {
		return false
	}

	if g.RequireEditor && !editor {
		return false
	}

	return true
}
