package models

// Team — участник лиги. Ядро только читает команды, владелец — сервис турниров.
type Team struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Tag  string `json:"tag" db:"tag"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

const (
	UnknownTeamName = "Unknown"
	TBDTeamName     = "TBD"
)

// TeamDirectory индексирует команды по ID для поиска при расчётах.
type TeamDirectory map[int]Team

func NewTeamDirectory(teams []Team) TeamDirectory {
	dir := make(TeamDirectory, len(teams))
	for _, t := range teams {
		dir[t.ID] = t
	}
	return dir
}

// Resolve возвращает команду по id или заглушку "Unknown", если такой
// команды в справочнике нет.
func (d TeamDirectory) Resolve(id int) Team {
	if t, ok := d[id]; ok {
		return t
	}
	return Team{ID: id, Name: UnknownTeamName}
}
