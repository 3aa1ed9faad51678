package exchange

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupName is the default file name for a backup taken at now.
func BackupName(now time.Time) string {
	return fmt.Sprintf("conti_backup_%s.db", now.Format("20060102_150405"))
}

// Backup copies the database file at dbPath to dst.
func Backup(dbPath, dst string) error {
	if err := copyFile(dbPath, dst); err != nil {
		return fmt.Errorf("backup database: %w", err)
	}
	return nil
}

// Restore replaces the database file at dbPath with src. The store must be
// closed while this runs.
func Restore(src, dbPath string) error {
	if err := copyFile(src, dbPath); err != nil {
		return fmt.Errorf("restore database: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	// Copy through a temp file in the target directory, then rename.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".conti-copy-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
