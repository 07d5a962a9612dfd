package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Common errors for route file loading.
var (
	ErrFileNotFound     = errors.New("route file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("route file is empty")
	ErrNoFiles          = errors.New("no route files match")
)

// LoadFromFile reads a RouteFile from a JSON or YAML file.
// The format is auto-detected based on file extension (.yaml, .yml for YAML, otherwise JSON).
// The file is validated; see Validate.
func LoadFromFile(path string) (*RouteFile, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if isYAML(path) {
		return ParseYAML(data)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}
	return ParseJSON(data)
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ParseJSON parses and validates a JSON route file.
func ParseJSON(data []byte) (*RouteFile, error) {
	var file RouteFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &file, nil
}

// ParseYAML parses and validates a YAML route file.
func ParseYAML(data []byte) (*RouteFile, error) {
	var file RouteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &file, nil
}

// LoadGlob loads every route file matching pattern ("routes/**/*.yaml") and
// merges their routes in lexical file order. The merged file is validated as
// a whole, so fan-outs may refer to routes in other files.
func LoadGlob(pattern string) (*RouteFile, error) {
	paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	slices.Sort(paths)

	merged := &RouteFile{Version: CurrentVersion, Name: pattern}
	for _, path := range paths {
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		file, err := decode(path, data)
		if err != nil {
			return nil, err
		}
		merged.Routes = append(merged.Routes, file.Routes...)
	}

	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return merged, nil
}

// decode parses without validating.
func decode(path string, data []byte) (*RouteFile, error) {
	var file RouteFile
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w in %s: %v", ErrInvalidYAML, path, err)
		}
		return &file, nil
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrInvalidJSON, path, err)
	}
	return &file, nil
}

// SaveToFile writes a RouteFile as YAML or JSON depending on the extension.
// The file is written to a temporary path and renamed into place.
func SaveToFile(path string, file *RouteFile) error {
	if file == nil {
		return errors.New("route file cannot be nil")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(file)
	} else {
		data, err = json.MarshalIndent(file, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to marshal route file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
