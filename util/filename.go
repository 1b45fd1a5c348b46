// Package util contains any functions used across the application that don't match
// any other package
package util

import (
	"path"
	"strings"
)

// Client file names become storage path components, so everything that
// could escape the owner's directory has to go.
var unsafeChars = strings.NewReplacer(
	"/", "",
	"\\", "",
	"..", "",
	":", "",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SecureFilename strips path separators and unsafe characters from a
// client-supplied file name and collapses whitespace to underscores.
// Returns "unnamed" if nothing survives.
func SecureFilename(name string) string {
	name = path.Base(name)
	name = unsafeChars.Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = strings.Trim(name, ". ")

	if name == "" {
		return "unnamed"
	}

	return name
}
