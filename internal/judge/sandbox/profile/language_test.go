package profile

import (
	"testing"

	appErr "examclient/pkg/errors"
)

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(LanguageSpec{ID: "python", Aliases: []string{"py"}, Interpreter: "python3"})

	for _, id := range []string{"python", "Python", " PY "} {
		lang, err := reg.GetLanguageSpec(id)
		if err != nil {
			t.Fatalf("lookup %q: %v", id, err)
		}
		if lang.ID != "python" {
			t.Fatalf("unexpected language %q", lang.ID)
		}
		if lang.RunCmdTpl != DefaultPythonRunCmdTpl {
			t.Fatalf("expected default command template, got %q", lang.RunCmdTpl)
		}
	}

	if _, err := reg.GetLanguageSpec("cpp"); !appErr.Is(err, appErr.LanguageNotSupported) {
		t.Fatalf("expected language not supported, got %v", err)
	}
	if _, err := reg.GetLanguageSpec(""); !appErr.Is(err, appErr.ValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDefaultPython(t *testing.T) {
	lang := DefaultPython()
	if lang.ID != LanguagePython || lang.Interpreter == "" {
		t.Fatalf("unexpected default profile: %+v", lang)
	}
}
