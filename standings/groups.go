package standings

import (
	"sort"

	"github.com/Dosada05/esports-league/models"
)

type GroupStandings struct {
	Label string               `json:"label"`
	Rows  []models.StandingRow `json:"rows"`
}

// ComputeByGroup делит матчи группового этапа по меткам и ранжирует каждую группу.
// Матчи других стадий и матчи без метки игнорируются.
func ComputeByGroup(matches []models.Match, teams []models.Team, opts ...Option) []GroupStandings {
	byLabel := make(map[string][]models.Match)
	for _, m := range matches {
		if m.Stage != models.StageGroups || m.GroupLabel == nil {
			continue
		}
		byLabel[*m.GroupLabel] = append(byLabel[*m.GroupLabel], m)
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) < len(labels[j])
		}
		return labels[i] < labels[j]
	})

	out := make([]GroupStandings, 0, len(labels))
	for _, label := range labels {
		out = append(out, GroupStandings{
			Label: label,
			Rows:  Compute(byLabel[label], teams, opts...),
		})
	}
	return out
}
