package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// Suffix is appended to every slot name so the final extension is always
	// one a module loader treats as ECMAScript.
	Suffix = ".mjs"

	// maxSlotName keeps slot names under common filesystem name limits.
	maxSlotName = 240
)

// SlotName returns the cache file name for the reference href.
//
// Names longer than the filesystem allows are truncated and suffixed with
// "+" and the SHA-256 of href. "+" never appears in a regular slot name, so
// truncated names cannot collide with untruncated ones.
func SlotName(href string) string {
	name := escape(href)
	name = strings.ReplaceAll(name, "_", "__")
	name = strings.ReplaceAll(name, "%", "_")
	if len(name)+len(Suffix) <= maxSlotName {
		return name + Suffix
	}
	sum := digest(href)
	keep := maxSlotName - len(Suffix) - len(sum) - 1
	return name[:keep] + "+" + sum + Suffix
}

// escape percent-encodes s the way encodeURIComponent does: every UTF-8 byte
// except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is written as %XX.
func escape(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// digest returns the hex SHA-256 of href, the tail of truncated slot names.
func digest(href string) string {
	sum := sha256.Sum256([]byte(href))
	return hex.EncodeToString(sum[:])
}
