package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileManager owns the on-disk layout for generated artifacts. Raw
// transcript uploads are parsed in memory and never written to disk, so
// the only files kept are de-identified session reports.
type FileManager struct {
	baseDir    string
	reportsDir string
}

func NewFileManager(baseDir string) (*FileManager, error) {
	fm := &FileManager{
		baseDir:    baseDir,
		reportsDir: filepath.Join(baseDir, "reports"),
	}

	for _, dir := range []string{fm.baseDir, fm.reportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	return fm, nil
}

func (fm *FileManager) ReportPath(sessionID string) string {
	return filepath.Join(fm.reportsDir, fmt.Sprintf("%s.pdf", sessionID))
}

func (fm *FileManager) RemoveReport(sessionID string) {
	_ = os.Remove(fm.ReportPath(sessionID))
}
