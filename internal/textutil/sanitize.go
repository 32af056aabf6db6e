// Package textutil holds small string helpers shared across packages.
package textutil

import "strings"

// prefixReplacer maps filesystem-unsafe characters in user-supplied file
// prefixes. Slashes, backslashes, colons, and asterisks become dashes; the
// rest are dropped.
var prefixReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a string safe to embed in exported file names.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(prefixReplacer.Replace(name))
}
