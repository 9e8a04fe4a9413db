package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OutputManager handles output file organization and path management
type OutputManager struct {
	BaseOutputDir string
}

// FileInfo describes one exported file of a report.
type FileInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// CreateReportOutputDir creates the directory holding a report's exports
func (om *OutputManager) CreateReportOutputDir(reportID string) (string, error) {
	reportDir := filepath.Join(om.BaseOutputDir, filepath.Base(reportID))

	err := os.MkdirAll(reportDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create report output directory: %w", err)
	}

	return reportDir, nil
}

// GetOutputFilePath generates a full path for an output file
func (om *OutputManager) GetOutputFilePath(reportID, fileName string) (string, error) {
	reportDir, err := om.CreateReportOutputDir(reportID)
	if err != nil {
		return "", err
	}

	// Clean the filename to remove any path separators
	cleanFileName := filepath.Base(fileName)

	return filepath.Join(reportDir, cleanFileName), nil
}

// ExistingFilePath returns the path of an exported file, or an error if it
// was never written.
func (om *OutputManager) ExistingFilePath(reportID, fileName string) (string, error) {
	path := filepath.Join(om.BaseOutputDir, filepath.Base(reportID), filepath.Base(fileName))
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", fileName)
	}
	return path, nil
}

// ListFiles returns the exported files of a report sorted by name
func (om *OutputManager) ListFiles(reportID string) ([]FileInfo, error) {
	entries, err := os.ReadDir(filepath.Join(om.BaseOutputDir, filepath.Base(reportID)))
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, FileInfo{
			Name:        e.Name(),
			Type:        om.GetFileType(e.Name()),
			Size:        info.Size(),
			DownloadURL: om.GetDownloadURL(reportID, e.Name()),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// GetDownloadURL generates a download URL for a file
func (om *OutputManager) GetDownloadURL(reportID, fileName string) string {
	cleanFileName := filepath.Base(fileName)
	return fmt.Sprintf("/api/v1/reports/%s/files/%s", reportID, cleanFileName)
}

// GetFileType determines the file type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".xlsx", ".xls":
		return "excel"
	default:
		return "unknown"
	}
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}
