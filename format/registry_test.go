package format

import "testing"

func TestGetFormatterByName(t *testing.T) {
	if _, ok := GetFormatter("json", "").(*JSONFormatter); !ok {
		t.Error("expected the json formatter by name")
	}
	if _, ok := GetFormatter("md", "").(*MarkdownFormatter); !ok {
		t.Error("expected the md formatter by name")
	}
}

func TestGetFormatterByExtension(t *testing.T) {
	if _, ok := GetFormatter("", "report.json").(*JSONFormatter); !ok {
		t.Error("expected the json formatter from a .json filename")
	}
}

func TestGetFormatterFallsBackToText(t *testing.T) {
	if _, ok := GetFormatter("nonexistent", "").(*TextFormatter); !ok {
		t.Error("expected the text formatter as a fallback")
	}
	if _, ok := GetFormatter("", "").(*TextFormatter); !ok {
		t.Error("expected the text formatter with no hints at all")
	}
}

func TestRegisterFormatterAddsCustomFormat(t *testing.T) {
	RegisterFormatter("custom", &TextFormatter{})
	if _, ok := GetFormatter("custom", "").(*TextFormatter); !ok {
		t.Error("expected the registered custom formatter")
	}
}
