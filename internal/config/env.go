package config

import (
	"os"
	"regexp"
)

var envPlaceholder = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// expandEnvPlaceholders replaces %NAME% with the value of the NAME environment
// variable. Unset variables leave the placeholder untouched so validation can
// point at it.
func expandEnvPlaceholders(raw []byte) []byte {
	return envPlaceholder.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := string(match[1 : len(match)-1])
		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		return match
	})
}
