package generator

import (
	"strings"
)

// RenderTemplate fills {key} placeholders from data. Unknown placeholders are left as written.
func RenderTemplate(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
