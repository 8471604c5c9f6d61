package obras

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fold lowercases s and strips diacritics so "Construção" matches "construcao".
func fold(s string) string {
	t := norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))
	t = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, t)
	return norm.NFC.String(t)
}

func sortByDue(tasks []PendingTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Due.Before(tasks[j].Due)
	})
}
