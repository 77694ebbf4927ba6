// Package address derives public addresses from secret keys and validates
// the address grammar.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

// Prefix is the leading character of every v2 address.
const Prefix = "k"

// Length is the width of both address generations.
const Length = 10

var (
	v2Pattern = regexp.MustCompile(`^k[a-z0-9]{9}$`)
	v1Pattern = regexp.MustCompile(`^[a-f0-9]{10}$`)
)

// MakeV2 derives the v2 address for the specified secret. The derivation is
// public and verified by wallets, so it must stay bit for bit identical.
func MakeV2(secret string) string {
	var proteins [9]string
	used := [9]bool{}

	hash := doubleSHA256(secret)
	for i := range proteins {
		proteins[i] = hash[:2]
		hash = doubleSHA256(hash)
	}

	var sb strings.Builder
	sb.Grow(Length)
	sb.WriteString(Prefix)

	for i := 0; i < len(proteins); {
		idx := hexPair(hash[2*i:2*i+2]) % 9
		if used[idx] {
			hash = sha256Hex(hash)
			continue
		}

		sb.WriteByte(toBase36(hexPair(proteins[idx])))
		used[idx] = true
		i++
	}

	return sb.String()
}

// MakeV1 derives the legacy address for the specified secret. It exists so
// old wallets can still authenticate and must never be used to create rows.
func MakeV1(secret string) string {
	return sha256Hex(secret)[:Length]
}

// Verify reports whether the secret owns the address. Legacy addresses are
// only accepted when allowV1 is set.
func Verify(secret string, address string, allowV1 bool) bool {
	address = Canonical(address)

	if MakeV2(secret) == address {
		return true
	}

	return allowV1 && MakeV1(secret) == address
}

// IsValid reports whether the string is a well formed address. Legacy
// addresses are only considered when allowV1 is set.
func IsValid(address string, allowV1 bool) bool {
	address = Canonical(address)

	if v2Pattern.MatchString(address) {
		return true
	}

	return allowV1 && v1Pattern.MatchString(address)
}

// Canonical returns the canonical lowercase form of the address.
func Canonical(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// =============================================================================

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// doubleSHA256 hashes the hex text of the first digest, not its raw bytes.
func doubleSHA256(s string) string {
	return sha256Hex(sha256Hex(s))
}

func hexPair(s string) int {
	v, _ := strconv.ParseUint(s, 16, 8)
	return int(v)
}

// toBase36 maps a byte onto [0-9a-z]. Values past 'z' collapse onto 'e'.
func toBase36(v int) byte {
	b := 48 + v/7

	switch {
	case b+39 > 122:
		return 'e'
	case b > 57:
		return byte(b + 39)
	default:
		return byte(b)
	}
}
