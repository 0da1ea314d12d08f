// internal/risk/blacklist.go
package risk

import "strings"

// Blacklist is an immutable, case-insensitive set of addresses.
type Blacklist struct {
	entries map[string]struct{}
}

// NewBlacklist builds the set once at startup. Blank entries are ignored.
func NewBlacklist(addresses []string) *Blacklist {
	entries := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		a = normalize(a)
		if a == "" {
			continue
		}
		entries[a] = struct{}{}
	}
	return &Blacklist{entries: entries}
}

// Contains reports whether address is listed. A nil list contains nothing.
func (b *Blacklist) Contains(address string) bool {
	if b == nil {
		return false
	}
	address = normalize(address)
	if address == "" {
		return false
	}
	_, ok := b.entries[address]
	return ok
}

// Len returns the number of distinct entries.
func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
