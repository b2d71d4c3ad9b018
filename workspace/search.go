package workspace

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Dosada05/esports-league/models"
)

// SearchPool ранжирует нераспределённые команды по совпадению имени или тега
// с query. Пустой query возвращает весь пул в его порядке.
func (w *Workspace) SearchPool(query string) []models.Team {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]models.Team, 0, len(w.pool))
		for _, id := range w.pool {
			out = append(out, w.teams[id])
		}
		return out
	}

	targets := make([]string, 0, 2*len(w.pool))
	owners := make([]int, 0, 2*len(w.pool))
	for _, id := range w.pool {
		t := w.teams[id]
		targets = append(targets, t.Name)
		owners = append(owners, id)
		if t.Tag != "" {
			targets = append(targets, t.Tag)
			owners = append(owners, id)
		}
	}

	best := make(map[int]int)
	for _, rank := range fuzzy.RankFindNormalizedFold(query, targets) {
		id := owners[rank.OriginalIndex]
		if d, ok := best[id]; !ok || rank.Distance < d {
			best[id] = rank.Distance
		}
	}

	ids := make([]int, 0, len(best))
	for _, id := range w.pool {
		if _, ok := best[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return best[ids[i]] < best[ids[j]]
	})

	out := make([]models.Team, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.teams[id])
	}
	return out
}
