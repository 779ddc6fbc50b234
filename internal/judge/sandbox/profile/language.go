// Package profile defines the language profiles used by the sandbox.
package profile

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	appErr "examclient/pkg/errors"
)

// LanguagePython is the only language the client judges.
const LanguagePython = "python"

// DefaultPythonRunCmdTpl runs the source unbuffered so partial output
// survives a kill.
const DefaultPythonRunCmdTpl = "{interpreter} -u {src}"

// LanguageSpec defines how to run a language.
type LanguageSpec struct {
	ID          string   `yaml:"id"`
	Aliases     []string `yaml:"aliases"`
	Interpreter string   `yaml:"interpreter"`
	RunCmdTpl   string   `yaml:"runCmdTpl"`
	SourceFile  string   `yaml:"sourceFile"`
	Env         []string `yaml:"env"`
}

// DefaultPython returns the python profile with the platform interpreter.
func DefaultPython() LanguageSpec {
	return LanguageSpec{
		ID:          LanguagePython,
		Aliases:     []string{"py", "python3"},
		Interpreter: DefaultPythonInterpreter(),
		RunCmdTpl:   DefaultPythonRunCmdTpl,
		SourceFile:  "main.py",
	}
}

// DefaultPythonInterpreter is python3 on unix. On windows the client ships
// an embedded interpreter next to its executable.
func DefaultPythonInterpreter() string {
	if runtime.GOOS != "windows" {
		return "python3"
	}
	exe, err := os.Executable()
	if err != nil {
		return "python.exe"
	}
	return filepath.Join(filepath.Dir(exe), "python", "python.exe")
}

// Registry resolves language ids case-insensitively.
type Registry struct {
	languages map[string]LanguageSpec
}

// NewRegistry creates a registry from config lists. Later entries win.
func NewRegistry(languages ...LanguageSpec) *Registry {
	langMap := make(map[string]LanguageSpec)
	for _, lang := range languages {
		if lang.ID == "" {
			continue
		}
		if lang.RunCmdTpl == "" {
			lang.RunCmdTpl = DefaultPythonRunCmdTpl
		}
		if lang.SourceFile == "" {
			lang.SourceFile = "main.py"
		}
		langMap[normalize(lang.ID)] = lang
		for _, alias := range lang.Aliases {
			langMap[normalize(alias)] = lang
		}
	}
	return &Registry{languages: langMap}
}

// GetLanguageSpec returns a language spec.
func (r *Registry) GetLanguageSpec(id string) (LanguageSpec, error) {
	if strings.TrimSpace(id) == "" {
		return LanguageSpec{}, appErr.ValidationError("language", "required")
	}
	lang, ok := r.languages[normalize(id)]
	if !ok {
		return LanguageSpec{}, appErr.Newf(appErr.LanguageNotSupported, "language %s not supported", id)
	}
	return lang, nil
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
