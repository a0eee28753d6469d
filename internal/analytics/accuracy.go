package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

// SelectionMode picks which slice of the sorted category accuracies to return.
type SelectionMode string

const (
	SelectTop    SelectionMode = "top"
	SelectBottom SelectionMode = "bottom"
	SelectCustom SelectionMode = "custom"
)

// ParseSelectionMode maps user input onto a SelectionMode.
func ParseSelectionMode(raw string) (SelectionMode, error) {
	switch mode := SelectionMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case SelectTop, SelectBottom, SelectCustom:
		return mode, nil
	case "":
		return SelectTop, nil
	default:
		return "", fmt.Errorf("%w: unknown category filter %q", models.ErrInvalidParameter, raw)
	}
}

// CategoryAccuracy is the accuracy of a single ground-truth category.
type CategoryAccuracy struct {
	Category string  `json:"category"`
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Percent returns the accuracy scaled to 0-100.
func (c CategoryAccuracy) Percent() float64 {
	return c.Accuracy * 100
}

// OverallAccuracy is the mean of is_correct across all rows. An empty table yields 0.
func OverallAccuracy(table *models.ResultsTable) (float64, error) {
	if err := table.Require(models.ColumnIsCorrect); err != nil {
		return 0, err
	}
	if table.Len() == 0 {
		return 0, nil
	}

	correct := 0
	for _, record := range table.Records {
		if record.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(table.Records)), nil
}

// CategoryAccuracies groups rows by category and sorts the groups by accuracy,
// highest first. Ties keep the order in which categories first appear.
func CategoryAccuracies(table *models.ResultsTable) ([]CategoryAccuracy, error) {
	if err := table.Require(models.ColumnCategory, models.ColumnIsCorrect); err != nil {
		return nil, err
	}

	positions := make(map[string]int)
	groups := make([]CategoryAccuracy, 0)
	for _, record := range table.Records {
		idx, ok := positions[record.Category]
		if !ok {
			idx = len(groups)
			positions[record.Category] = idx
			groups = append(groups, CategoryAccuracy{Category: record.Category})
		}
		groups[idx].Total++
		if record.IsCorrect {
			groups[idx].Correct++
		}
	}

	for i := range groups {
		groups[i].Accuracy = float64(groups[i].Correct) / float64(groups[i].Total)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Accuracy > groups[j].Accuracy
	})

	return groups, nil
}

// SelectCategories returns a subset of the descending accuracies.
//
// Top keeps the first n entries and Bottom the last n, both in their original
// descending order. Custom keeps the entries whose category is listed, also in
// original order; n is ignored for Custom.
func SelectCategories(accuracies []CategoryAccuracy, mode SelectionMode, n int, custom []string) ([]CategoryAccuracy, error) {
	switch mode {
	case SelectTop, SelectBottom:
		if n <= 0 {
			return nil, fmt.Errorf("%w: n must be positive, got %d", models.ErrInvalidParameter, n)
		}
		if n > len(accuracies) {
			n = len(accuracies)
		}
		var window []CategoryAccuracy
		if mode == SelectTop {
			window = accuracies[:n]
		} else {
			window = accuracies[len(accuracies)-n:]
		}
		return append([]CategoryAccuracy(nil), window...), nil
	case SelectCustom:
		wanted := make(map[string]struct{}, len(custom))
		for _, category := range custom {
			wanted[category] = struct{}{}
		}
		selected := make([]CategoryAccuracy, 0, len(custom))
		for _, entry := range accuracies {
			if _, ok := wanted[entry.Category]; ok {
				selected = append(selected, entry)
			}
		}
		return selected, nil
	default:
		return nil, fmt.Errorf("%w: unknown selection mode %q", models.ErrInvalidParameter, mode)
	}
}
