package gitexec

import (
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// replacementDecoder re-encodes arbitrary bytes as valid UTF-8,
// substituting the replacement rune for anything it cannot decode,
// rather than failing.
var replacementDecoder = unicode.UTF8.NewDecoder()

// decode converts raw subprocess output into a string, falling back
// gracefully rather than ever failing outright. Git's own output is
// assumed UTF-8; some credential-helper or locale-specific tooling on
// Windows/CJK systems emits GBK instead. As a last resort, invalid
// bytes are replaced rather than dropped.
func decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	if s, err := simplifiedchinese.GBK.NewDecoder().String(string(b)); err == nil && utf8.ValidString(s) {
		return s
	}

	s, _ := replacementDecoder.String(string(b))
	return s
}

// credentialPattern matches the user:pass@ portion of an http(s) URL
// so it can be stripped before a command or its output reaches a log
// line or an error message.
var credentialPattern = regexp.MustCompile(`(https?://)[^/@\s]+:[^/@\s]+@`)

// scrub removes embedded basic-auth credentials from a command string
// before it is attached to an error or logged. This is the only place
// credentials are allowed to appear unmasked: inside the literal
// command handed to the interpreter.
func scrub(cmd string) string {
	return credentialPattern.ReplaceAllString(cmd, "$1***:***@")
}
