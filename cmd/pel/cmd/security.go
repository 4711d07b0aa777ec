package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// validateFilePath performs security checks on a file path argument:
// it rejects path traversal, enforces the .pel extension, and caps file
// size. Grounded on go-calcmark's cmd/calcmark/cmd/security.go, reused
// verbatim in spirit across compile/run/calibrate's file arguments.
func validateFilePath(path string) error {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid path: path traversal detected")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}

	relPath, err := filepath.Rel(cwd, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return fmt.Errorf("invalid path: file must be within current directory")
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	if ext != ".pel" {
		return fmt.Errorf("invalid file extension: expected .pel")
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("invalid path: expected file, got directory")
	}

	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if info.Size() > maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	return nil
}

// validateCalibrationConfigPath checks a .yaml/.yml calibration config
// argument: it rejects "..", a wrong extension, a missing file and a
// directory. Unlike validateFilePath it does not require the file to lie
// under the working directory and does not check its size.
func validateCalibrationConfigPath(path string) error {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid path: path traversal detected")
	}
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("invalid file extension: expected .yaml or .yml")
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("invalid path: expected file, got directory")
	}
	return nil
}

// readModelSource reads a model's source text from the named file, or from
// stdin when no file argument is given.
func readModelSource(args []string) (string, error) {
	if len(args) > 0 {
		filename := args[0]
		if err := validateFilePath(filename); err != nil {
			return "", fmt.Errorf("invalid file: %w", err)
		}
		bytes, err := os.ReadFile(filename)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(bytes), nil
	}

	bytes, err := readAllStdin()
	if err != nil {
		return "", err
	}
	src := strings.TrimSpace(string(bytes))
	if src == "" {
		return "", fmt.Errorf("no input provided")
	}
	return string(bytes), nil
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
