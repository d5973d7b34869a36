package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "casecount/internal/errors"
)

// acceptedExtensions lists the workbook formats excelize reads for us.
var acceptedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// FileValidator provides the file checks shared by the web upload and the CLI
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateUploadName checks that a client-supplied filename looks like an
// Excel workbook. Only the base name is considered.
func (v *FileValidator) ValidateUploadName(name string) error {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if strings.TrimSpace(name) == "" || base == "." || base == "/" {
		return apierrors.NewMissingInputError("no file uploaded")
	}

	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejected temporary Excel file",
			slog.String("file", base))
		return apierrors.NewParsingError(fmt.Sprintf("%s is a temporary Excel lock file", base), nil)
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !acceptedExtensions[ext] {
		v.logger.Warn("Rejected non-Excel upload",
			slog.String("file", base),
			slog.String("extension", ext))
		return apierrors.NewParsingError(
			fmt.Sprintf("%s is not an Excel workbook, upload a .xlsx file", base), nil)
	}

	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apierrors.NewMissingInputError(fmt.Sprintf("file %s does not exist", path))
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apierrors.NewMissingInputError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateExcelFile checks that path is a readable workbook on disk.
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.ValidateUploadName(path)
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ResolveOutputPath turns an --out value into a writable file path. An
// existing directory, or a value ending in a path separator, receives
// defaultName.
func (v *FileValidator) ResolveOutputPath(out, defaultName string) (string, error) {
	isDir := strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(filepath.Separator))
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		isDir = true
	}

	if isDir {
		if err := v.ValidateOutputDirectory(out); err != nil {
			return "", err
		}
		return filepath.Join(out, defaultName), nil
	}

	if err := v.ValidateOutputDirectory(filepath.Dir(out)); err != nil {
		return "", err
	}
	return out, nil
}
