package gemini

import "strings"

// modelAliases maps retired model names onto their current equivalents so
// clients pinned to an old name keep working.
var modelAliases = map[string]string{
	"gemini-1.5-flash":        "gemini-2.5-flash",
	"gemini-1.5-flash-latest": "gemini-2.5-flash",
	"gemini-1.5-flash-8b":     "gemini-2.5-flash-lite",
	"gemini-1.5-pro":          "gemini-2.5-pro",
	"gemini-1.5-pro-latest":   "gemini-2.5-pro",
	"gemini-pro":              "gemini-2.5-pro",
}

// NormalizeModel strips the optional "models/" prefix and resolves retired
// aliases. Unknown names pass through unchanged; empty stays empty.
func NormalizeModel(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "models/")
	if canonical, ok := modelAliases[name]; ok {
		return canonical
	}
	return name
}
