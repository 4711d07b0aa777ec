package format

import (
	"path/filepath"
	"strings"
)

var formatters = map[string]Formatter{
	"text": &TextFormatter{},
	"json": &JSONFormatter{},
	"md":   &MarkdownFormatter{},
}

// GetFormatter returns the formatter matching format by name, or by
// filename extension if format is empty. Falls back to the text formatter
// when nothing matches.
func GetFormatter(format, filename string) Formatter {
	if format != "" {
		if f, ok := formatters[format]; ok {
			return f
		}
		return formatters["text"]
	}

	if filename != "" {
		ext := strings.ToLower(filepath.Ext(filename))
		if ext != "" {
			for _, f := range formatters {
				for _, fExt := range f.Extensions() {
					if ext == fExt {
						return f
					}
				}
			}
		}
	}

	return formatters["text"]
}

// RegisterFormatter adds a custom formatter to the registry, letting a
// caller extend output formats without modifying this package.
func RegisterFormatter(name string, formatter Formatter) {
	formatters[name] = formatter
}
