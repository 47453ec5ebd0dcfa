// Package suggest filters activity names for slash-command autocomplete.
package suggest

import "strings"

// MaxSuggestions is the platform cap on autocomplete choices.
const MaxSuggestions = 25

// DefaultActivities is the built-in raid and dungeon list, used when the
// config does not supply its own.
var DefaultActivities = []string{
	"Last Wish",
	"Garden of Salvation",
	"Deep Stone Crypt",
	"Vault of Glass",
	"Vow of the Disciple",
	"King's Fall",
	"Root of Nightmares",
	"Crota's End",
	"Salvation's Edge",
}

// Filter returns the activities whose name contains query
// (case-insensitive), in list order, capped at MaxSuggestions. An empty
// query matches everything.
func Filter(activities []string, query string) []string {
	q := strings.ToLower(query)
	var out []string
	for _, a := range activities {
		if strings.Contains(strings.ToLower(a), q) {
			out = append(out, a)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}
