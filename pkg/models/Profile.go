package models

import (
	"fmt"
	"strings"
)

var (
	ErrProfileNotFound = fmt.Errorf("profile not found")
)

type AccessLevel string

const (
	LevelVisitor         AccessLevel = "visitante"
	LevelStudent         AccessLevel = "aluno"
	LevelGraduate        AccessLevel = "graduado"
	LevelMonitor         AccessLevel = "monitor"
	LevelInstructor      AccessLevel = "instrutor"
	LevelTeacher         AccessLevel = "professor"
	LevelAssistantMaster AccessLevel = "contramestre"
	LevelMaster          AccessLevel = "mestre"
)

var accessLevelOrder = []AccessLevel{
	LevelVisitor,
	LevelStudent,
	LevelGraduate,
	LevelMonitor,
	LevelInstructor,
	LevelTeacher,
	LevelAssistantMaster,
	LevelMaster,
}

/*
Rank returns the position of the level in the fixed total order. Unknown
levels rank as visitors.
*/
func (l AccessLevel) Rank() int {
	normalized := AccessLevel(strings.ToLower(strings.TrimSpace(string(l))))

	for index, level := range accessLevelOrder {
		if level == normalized {
			return index
		}
	}

	return 0
}

func (l AccessLevel) Valid() bool {
	normalized := AccessLevel(strings.ToLower(strings.TrimSpace(string(l))))

	for _, level := range accessLevelOrder {
		if level == normalized {
			return true
		}
	}

	return false
}

/*
Profile is the member snapshot returned by the backend for an authenticated
identity.
*/
type Profile struct {
	Email       string      `json:"email"`
	Name        string      `json:"nome"`
	AccessLevel AccessLevel `json:"nivelAcesso"`
	Editor      bool        `json:"permissaoEventos"`
}
