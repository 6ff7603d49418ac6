package catalog

import (
	"strings"

	"github.com/Astemirdum/fabtrack/internal/model"
)

const (
	LabelAvailable   = "Available"
	LabelUnavailable = "Unavailable"
)

// Filter keeps equipment whose name or category contains query, ignoring
// case. An empty query keeps everything.
func Filter(list []model.Equipment, query string) []model.Equipment {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]model.Equipment, 0, len(list))
	for _, eq := range list {
		if strings.Contains(strings.ToLower(eq.Name), q) || strings.Contains(strings.ToLower(eq.Category), q) {
			out = append(out, eq)
		}
	}
	return out
}

func Find(list []model.Equipment, id model.ID) (model.Equipment, bool) {
	for _, eq := range list {
		if eq.ID == id {
			return eq, true
		}
	}
	return model.Equipment{}, false
}

func Label(eq model.Equipment) string {
	if eq.Available {
		return LabelAvailable
	}
	return LabelUnavailable
}

// Categories lists the distinct categories in first-seen order.
func Categories(list []model.Equipment) []string {
	seen := make(map[string]bool)
	var out []string
	for _, eq := range list {
		if eq.Category == "" || seen[strings.ToLower(eq.Category)] {
			continue
		}
		seen[strings.ToLower(eq.Category)] = true
		out = append(out, eq.Category)
	}
	return out
}
