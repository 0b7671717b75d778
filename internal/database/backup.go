package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

const backupPrefix = "erp-backup-"

var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrInvalidFilename = errors.New("invalid backup filename")
	ErrCorruptBackup   = errors.New("backup is not a valid database")
)

// Backups manages snapshot files of the live database inside Dir.
type Backups struct {
	DB        *sql.DB
	Dir       string
	DBPath    string
	Retention int

	mu sync.Mutex
}

// Create writes a consistent snapshot of the database with VACUUM INTO and
// returns its file name.
func (b *Backups) Create(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	ts := time.Now().Format("2006-01-02T15-04-05")
	filename := fmt.Sprintf("%s%s.db", backupPrefix, ts)
	dest := filepath.Join(b.Dir, filename)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		filename = fmt.Sprintf("%s%s-%d.db", backupPrefix, ts, counter)
		dest = filepath.Join(b.Dir, filename)
	}

	if _, err := b.DB.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return "", fmt.Errorf("vacuum into: %w", err)
	}
	b.prune()
	return filename, nil
}

// List returns the backup files, newest first.
func (b *Backups) List() ([]models.BackupInfo, error) {
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.BackupInfo{}, nil
		}
		return nil, err
	}

	backups := []models.BackupInfo{}
	for _, e := range entries {
		if e.IsDir() || !isBackupName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, models.BackupInfo{
			Filename:  e.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Filename > backups[j].Filename
	})
	return backups, nil
}

// Path resolves a backup file name to its location, rejecting anything
// that could escape Dir.
func (b *Backups) Path(filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") || !isBackupName(filename) {
		return "", ErrInvalidFilename
	}
	path := filepath.Join(b.Dir, filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrBackupNotFound
		}
		return "", err
	}
	return path, nil
}

// Delete removes one backup file.
func (b *Backups) Delete(filename string) error {
	path, err := b.Path(filename)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Restore takes a safety snapshot, checks the named backup, closes the live
// pool and moves the backup into place. DB is unusable afterwards; the caller
// must reopen the database, normally by restarting the process.
func (b *Backups) Restore(ctx context.Context, filename string) error {
	src, err := b.Path(filename)
	if err != nil {
		return err
	}
	if err := checkBackup(ctx, src); err != nil {
		return err
	}
	if _, err := b.Create(ctx); err != nil {
		return fmt.Errorf("pre-restore backup: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tmp := b.DBPath + ".restore"
	if err := copyFile(tmp, src); err != nil {
		os.Remove(tmp)
		return err
	}

	// Closing the last connection checkpoints the WAL, so nothing in flight
	// can write into the file being replaced.
	if err := b.DB.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(b.DBPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", suffix, err)
		}
	}
	return os.Rename(tmp, b.DBPath)
}

// checkBackup opens src read-only and runs a quick integrity check.
func checkBackup(ctx context.Context, src string) error {
	db, err := sql.Open("sqlite", "file:"+src+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()
	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptBackup, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", ErrCorruptBackup, result)
	}
	return nil
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create restore file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy backup: %w", err)
	}
	return out.Close()
}

func (b *Backups) prune() {
	if b.Retention <= 0 {
		return
	}
	backups, err := b.List()
	if err != nil || len(backups) <= b.Retention {
		return
	}
	for _, old := range backups[b.Retention:] {
		os.Remove(filepath.Join(b.Dir, old.Filename))
	}
}

func isBackupName(name string) bool {
	return strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, ".db")
}
