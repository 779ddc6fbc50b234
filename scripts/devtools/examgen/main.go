// Command examgen renders exam config.json files from YAML sources.
//
// An exam is authored once as YAML; each room or sitting gets its own output
// with overrides such as a different remoteHost or access list. Every output
// is validated the same way the client validates it at startup.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"examclient/internal/judge/model"

	"gopkg.in/yaml.v3"
)

type Profile struct {
	OutputDir  string                 `yaml:"outputDir"`
	RemoteHost string                 `yaml:"remoteHost"`
	Exams      map[string]ExamProfile `yaml:"exams"`
}

type ExamProfile struct {
	Base      string                 `yaml:"base"`
	Output    string                 `yaml:"output"`
	Overrides map[string]interface{} `yaml:"overrides"`
}

func main() {
	profilePath := flag.String("profile", "configs/exam-profile.yaml", "Path to exam profile")
	outputDir := flag.String("output-dir", "", "Override output directory")
	flag.Parse()

	profilePathAbs, err := filepath.Abs(*profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve profile path failed: %v\n", err)
		os.Exit(1)
	}
	profile, err := loadProfile(profilePathAbs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load profile failed: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		profile.OutputDir = *outputDir
	}
	written, err := render(profile, filepath.Dir(profilePathAbs))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	for _, path := range written {
		fmt.Println(path)
	}
}

// render writes every exam of the profile and returns the written paths.
func render(profile *Profile, profileDir string) ([]string, error) {
	if profile.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if !filepath.IsAbs(profile.OutputDir) {
		profile.OutputDir = filepath.Join(profileDir, profile.OutputDir)
	}
	if err := os.MkdirAll(profile.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory failed: %w", err)
	}

	names := make([]string, 0, len(profile.Exams))
	for name := range profile.Exams {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		exam := profile.Exams[name]
		if exam.Base == "" {
			return nil, fmt.Errorf("exam %q missing base config", name)
		}
		if !filepath.IsAbs(exam.Base) {
			exam.Base = filepath.Join(profileDir, exam.Base)
		}

		baseConfig, err := loadYAML(exam.Base)
		if err != nil {
			return nil, fmt.Errorf("load base config for %q failed: %w", name, err)
		}
		baseConfig = normalizeValue(baseConfig)
		if len(exam.Overrides) > 0 {
			merged, err := mergeMap(baseConfig, normalizeValue(exam.Overrides))
			if err != nil {
				return nil, fmt.Errorf("merge overrides for %q failed: %w", name, err)
			}
			baseConfig = merged
		}
		baseConfig, err = applySharedHost(profile, baseConfig)
		if err != nil {
			return nil, fmt.Errorf("apply remote host for %q failed: %w", name, err)
		}

		data, err := json.MarshalIndent(baseConfig, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal exam %q failed: %w", name, err)
		}
		if _, err := model.ParseExamConfig(data); err != nil {
			return nil, fmt.Errorf("exam %q is invalid: %w", name, err)
		}

		outputPath, err := resolveOutputPath(profile.OutputDir, name, exam)
		if err != nil {
			return nil, fmt.Errorf("resolve output path for %q failed: %w", name, err)
		}
		if err := writeFile(outputPath, data); err != nil {
			return nil, fmt.Errorf("write exam %q failed: %w", name, err)
		}
		written = append(written, outputPath)
	}
	return written, nil
}

func loadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile failed: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile failed: %w", err)
	}
	if len(profile.Exams) == 0 {
		return nil, errors.New("profile has no exams")
	}
	return &profile, nil
}

func loadYAML(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml failed: %w", err)
	}

	var value interface{}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parse yaml failed: %w", err)
	}
	return value, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir failed: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write json failed: %w", err)
	}
	return nil
}

// resolveOutputPath defaults to <outputDir>/<name>/config.json, the file
// name the client looks for next to its executable.
func resolveOutputPath(outputDir, name string, exam ExamProfile) (string, error) {
	output := exam.Output
	if output == "" {
		output = filepath.Join(name, "config.json")
	}
	if filepath.IsAbs(output) {
		return output, nil
	}
	return filepath.Join(outputDir, output), nil
}

func normalizeValue(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, v := range typed {
			out[k] = normalizeValue(v)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, v := range typed {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprintf("%v", k)
			}
			out[key] = normalizeValue(v)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(typed))
		for _, item := range typed {
			out = append(out, normalizeValue(item))
		}
		return out
	default:
		return value
	}
}

// mergeMap merges override into base. Maps merge recursively; lists and
// scalars are replaced.
func mergeMap(base interface{}, override interface{}) (interface{}, error) {
	baseMap, ok := base.(map[string]interface{})
	if !ok {
		return nil, errors.New("base config is not a map")
	}
	overrideMap, ok := override.(map[string]interface{})
	if !ok {
		return nil, errors.New("override config is not a map")
	}

	merged := make(map[string]interface{}, len(baseMap))
	for k, v := range baseMap {
		merged[k] = v
	}

	for key, overrideValue := range overrideMap {
		baseValue, exists := merged[key]
		if !exists {
			merged[key] = overrideValue
			continue
		}

		baseChild, baseIsMap := baseValue.(map[string]interface{})
		overrideChild, overrideIsMap := overrideValue.(map[string]interface{})
		if baseIsMap && overrideIsMap {
			combined, err := mergeMap(baseChild, overrideChild)
			if err != nil {
				return nil, err
			}
			merged[key] = combined
			continue
		}
		merged[key] = overrideValue
	}
	return merged, nil
}

// applySharedHost sets remoteHost on exams that do not name their own server.
func applySharedHost(profile *Profile, config interface{}) (interface{}, error) {
	if profile == nil || profile.RemoteHost == "" {
		return config, nil
	}
	root, ok := config.(map[string]interface{})
	if !ok {
		return nil, errors.New("exam config is not a map")
	}
	if host, _ := root["remoteHost"].(string); host == "" {
		root["remoteHost"] = profile.RemoteHost
	}
	return root, nil
}
