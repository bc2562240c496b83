package canon

import "strings"

// DiscoveryID derives the stable identifier of a discovery from its
// suggested type and mention text: the text is lowercased, runs of
// non-alphanumeric characters collapse to single hyphens, and the type is
// prepended (e.g. "npc-tharivol", "location-whispering-glade").
//
// Keying by normalized text rather than byte offset means rescanning edited
// text yields the same ID for the same name, so operator resolutions can be
// carried across a rescan. The type prefix doubles as the minter's
// relationship-role convention.
func DiscoveryID(suggested EntityType, text string) string {
	return string(suggested) + "-" + Slug(text)
}

// Slug normalizes a name for use in identifiers: lowercase, with runs of
// non-alphanumeric characters collapsed to single hyphens and leading or
// trailing hyphens trimmed.
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// TypeOfDiscoveryID extracts the entity-type prefix of a discovery ID.
// Returns [EntityOther] when the prefix is not a recognised type.
func TypeOfDiscoveryID(id string) EntityType {
	prefix, _, ok := strings.Cut(id, "-")
	if !ok {
		return EntityOther
	}
	t := EntityType(prefix)
	if !t.IsValid() {
		return EntityOther
	}
	return t
}
