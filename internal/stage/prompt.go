package stage

import "strings"

// FillPrompt substitutes {name} placeholders in template. Substitution is a
// single pass, so values containing placeholder text are left as-is.
func FillPrompt(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
