package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"arrmate/internal/services/arr"
)

// Identity is the stable composite key for one logical download. Two
// snapshots with the same Identity are the same release even when the
// service has reassigned its numeric queue ID.
type Identity string

// ForItem derives the identity of a queue item. The download ID (torrent
// hash or NZB ID) is the strongest signal when present; otherwise the
// normalized title plus protocol stands in.
func ForItem(item arr.QueueItem) Identity {
	origin := strings.TrimSpace(string(item.Origin))
	if id := strings.TrimSpace(item.DownloadID); id != "" {
		return Identity(origin + ":" + strings.ToLower(id))
	}

	parts := []string{origin, NormalizeTitle(item.Title)}
	if protocol := strings.ToLower(strings.TrimSpace(item.Protocol)); protocol != "" {
		parts = append(parts, protocol)
	}
	return Identity(strings.Join(parts, ":"))
}

// Origin reports the service prefix encoded in the identity.
func (i Identity) Origin() string {
	value := string(i)
	if idx := strings.IndexByte(value, ':'); idx > 0 {
		return value[:idx]
	}
	return ""
}

// NormalizeTitle folds case and collapses punctuation so retries of the
// same release fingerprint identically regardless of cosmetic renames.
func NormalizeTitle(title string) string {
	folded := cases.Fold().String(title)
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(cleaned.String())
}
