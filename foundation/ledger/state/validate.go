package state

import (
	"regexp"
	"strings"
)

const (
	maxMetadata  = 255
	maxRequestID = 255
	maxRecord    = 255
	maxNonce     = 24
	nameSuffix   = ".kst"
)

var (
	namePattern     = regexp.MustCompile(`^[a-z0-9]{1,64}$`)
	nameRefPattern  = regexp.MustCompile(`(?i)^(?:([a-z0-9_-]{1,32})@)?([a-z0-9]{1,64})\.kst$`)
	metadataPattern = regexp.MustCompile(`^[\x20-\x7F\n]*$`)
	recordPattern   = regexp.MustCompile(`^[^\s.?#].[^\s]*$`)
)

// nameRef is a parsed "meta@name.kst" recipient.
type nameRef struct {
	raw      string
	metaname string
	name     string
}

// parseNameRef parses a name reference. The suffix is required.
func parseNameRef(s string) (nameRef, bool) {
	m := nameRefPattern.FindStringSubmatch(s)
	if m == nil {
		return nameRef{}, false
	}

	return nameRef{
		raw:      strings.ToLower(s),
		metaname: strings.ToLower(m[1]),
		name:     strings.ToLower(m[2]),
	}, true
}

// parseMetadataNameRef parses a name reference from the first metadata
// record.
func parseMetadataNameRef(metadata string) (nameRef, bool) {
	first, _, _ := strings.Cut(metadata, ";")
	return parseNameRef(first)
}

// NormalizeName lowercases the name and trims an optional suffix. The second
// result reports whether the name matches the grammar.
func NormalizeName(s string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, nameSuffix)

	return name, namePattern.MatchString(name)
}

func validMetadata(s string) bool {
	return len(s) <= maxMetadata && metadataPattern.MatchString(s)
}

func validRecord(s string) bool {
	if s == "" {
		return true
	}
	return len(s) <= maxRecord && recordPattern.MatchString(s)
}
