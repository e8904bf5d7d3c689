package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxAliasLength bounds display names.
const MaxAliasLength = 120

var (
	// ErrInvalidClientID is returned for non-positive client ids.
	ErrInvalidClientID = errors.New("clients: client id must be positive")
	// ErrEmptyAlias is returned for blank aliases.
	ErrEmptyAlias = errors.New("clients: alias is required")
)

// Alias maps a numeric historian client id to a display name.
type Alias struct {
	ClientID int    `json:"client_id"`
	Alias    string `json:"alias"`
}

// Validate checks and trims the alias.
func (a *Alias) Validate() error {
	if a.ClientID <= 0 {
		return ErrInvalidClientID
	}
	a.Alias = strings.TrimSpace(a.Alias)
	if a.Alias == "" {
		return ErrEmptyAlias
	}
	if utf8.RuneCountInString(a.Alias) > MaxAliasLength {
		return fmt.Errorf("clients: alias longer than %d characters", MaxAliasLength)
	}
	return nil
}

// CatalogueEntry is a client seen in the load records or aliased.
type CatalogueEntry struct {
	ClientID int     `json:"client_id"`
	Alias    *string `json:"alias"`
	Name     string  `json:"name"`
}

// DisplayName returns alias or the default "Cliente <id>" label.
func DisplayName(clientID int, alias string) string {
	if alias = strings.TrimSpace(alias); alias != "" {
		return alias
	}
	return fmt.Sprintf("Cliente %d", clientID)
}

// Merge combines client ids observed in loads with aliases, ordered by id.
func Merge(loadClients []int, aliases map[int]string) []CatalogueEntry {
	seen := make(map[int]struct{}, len(loadClients)+len(aliases))
	ids := make([]int, 0, len(loadClients)+len(aliases))
	add := func(id int) {
		if id <= 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range loadClients {
		add(id)
	}
	for id := range aliases {
		add(id)
	}
	sort.Ints(ids)

	entries := make([]CatalogueEntry, 0, len(ids))
	for _, id := range ids {
		entry := CatalogueEntry{ClientID: id, Name: DisplayName(id, aliases[id])}
		if alias, ok := aliases[id]; ok {
			value := alias
			entry.Alias = &value
		}
		entries = append(entries, entry)
	}
	return entries
}
