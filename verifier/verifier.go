package verifier

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"unicode"
)

// allowList holds the obfuscated form of every accepted code.
var allowList = [...]string{
	"VkVEZWNhSw==",
	"VkVERUNBSw==",
	"MDAxUElW",
}

// Obfuscate applies the allow-list transform to code: trim (browser rules), reverse, then
// standard base64 over the Latin-1 bytes. ok is false for empty input or for
// characters outside Latin-1, which the transform cannot represent.
func Obfuscate(code string) (encoded string, ok bool) {
	code = strings.TrimFunc(code, isTrimSpace)
	if code == "" {
		return "", false
	}

	runes := []rune(code)
	buf := make([]byte, len(runes))
	for i, r := range runes {
		if r > 0xFF {
			return "", false
		}
		buf[len(runes)-1-i] = byte(r)
	}
	return base64.StdEncoding.EncodeToString(buf), true
}

// isTrimSpace matches the whitespace and line terminators that browser string
// trimming removes. Unlike unicode.IsSpace it includes U+FEFF and excludes
// U+0085.
func isTrimSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// Verify reports whether candidate is an accepted code. It never panics.
func Verify(candidate string) bool {
	encoded, ok := Obfuscate(candidate)
	if !ok {
		return false
	}

	match := 0
	for _, want := range allowList {
		match |= subtle.ConstantTimeCompare([]byte(encoded), []byte(want))
	}
	return match == 1
}

// Accepted returns the number of codes on the allow-list.
func Accepted() int {
	return len(allowList)
}
