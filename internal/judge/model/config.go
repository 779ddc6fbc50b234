package model

import (
	"encoding/json"
	"os"

	appErr "examclient/pkg/errors"
)

// ParseExamConfig decodes and validates an exam configuration document.
func ParseExamConfig(data []byte) (ExamConfig, error) {
	var cfg ExamConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ExamConfig{}, appErr.Wrapf(err, appErr.ConfigInvalid, "parse exam config failed")
	}
	if err := cfg.Validate(); err != nil {
		return ExamConfig{}, err
	}
	return cfg, nil
}

// LoadExamConfig reads config.json from disk.
func LoadExamConfig(path string) (ExamConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ExamConfig{}, appErr.Wrapf(err, appErr.ConfigReadFailed, "read exam config failed")
	}
	return ParseExamConfig(data)
}
