package models

import "strings"

// GroupNamePrefix отделяет отображаемое имя группы от ключа хранения.
const GroupNamePrefix = "Group "

// Group существует только в рабочей области до сохранения.
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Teams []Team `json:"teams"`
}

// StorageKey убирает префикс отображения: "Group A" -> "A".
// Имена без префикса возвращаются как есть.
func (g Group) StorageKey() string {
	return strings.TrimPrefix(g.Name, GroupNamePrefix)
}

// GroupAssignment это пара (команда, группа) сохранённого разбиения.
type GroupAssignment struct {
	TeamID     int    `json:"team_id" db:"team_id"`
	GroupLabel string `json:"group_label" db:"group_label"`
}
