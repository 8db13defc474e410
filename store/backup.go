package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"songstory-api-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

// BackupInfo contains metadata about a backup file
type BackupInfo struct {
	FileName  string    `json:"fileName"`
	FilePath  string    `json:"filePath"`
	Size      int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Backup copies the database file into the backup directory inside a
// read transaction, so writers are not blocked and the copy is consistent.
func (s *Store) Backup() (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05.000")
	backupFilePath := filepath.Join(s.backupPath, fmt.Sprintf("songs_backup_%s.db", timestamp))

	log.Infof("%s Creating backup at: %s", logcolors.LogBackup, backupFilePath)
	if err := s.view(func(tx *bolt.Tx) error {
		return tx.CopyFile(backupFilePath, 0600)
	}); err != nil {
		return "", fmt.Errorf("failed to copy database file: %v", err)
	}

	log.Infof("%s Backup created successfully: %s", logcolors.LogBackup, backupFilePath)
	return backupFilePath, nil
}

// ListBackups returns all backup files, newest first
func (s *Store) ListBackups() ([]BackupInfo, error) {
	backups := []BackupInfo{}

	entries, err := os.ReadDir(s.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warnf("%s Failed to get info for %s: %v", logcolors.LogBackup, entry.Name(), err)
			continue
		}
		backups = append(backups, BackupInfo{
			FileName:  entry.Name(),
			FilePath:  filepath.Join(s.backupPath, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].FileName > backups[j].FileName
	})
	return backups, nil
}

// Restore replaces the live database with a backup file and reloads the index.
// Other store calls wait until the swap is done. When the backup cannot be
// put in place the previous database is reopened.
func (s *Store) Restore(backupFileName string) error {
	if filepath.Base(backupFileName) != backupFileName || filepath.Ext(backupFileName) != ".db" {
		return fmt.Errorf("invalid backup file: must be a .db file name")
	}
	backupFilePath := filepath.Join(s.backupPath, backupFileName)
	if _, err := os.Stat(backupFilePath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupFileName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Infof("%s Starting restore from backup: %s", logcolors.LogBackup, backupFileName)
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close current database: %v", err)
	}

	preRestore := s.dbPath + ".pre-restore"
	if err := copyFile(s.dbPath, preRestore); err != nil {
		return s.reopen(fmt.Errorf("failed to backup current database: %v", err))
	}
	if err := copyFile(backupFilePath, s.dbPath); err != nil {
		return s.rollback(preRestore, fmt.Errorf("failed to restore backup: %v", err))
	}
	if err := s.open(); err != nil {
		return s.rollback(preRestore, fmt.Errorf("failed to reopen database after restore: %v", err))
	}
	os.Remove(preRestore)

	log.Infof("%s Restored from backup: %s", logcolors.LogBackup, backupFileName)
	return nil
}

// rollback puts the pre-restore copy back and reopens it. cause is always
// returned, joined with whatever failed on the way back.
func (s *Store) rollback(preRestore string, cause error) error {
	log.Warnf("%s Restore failed, rolling back: %v", logcolors.LogBackup, cause)
	if err := copyFile(preRestore, s.dbPath); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to roll back database, previous copy kept at %s: %v", preRestore, err))
	}
	os.Remove(preRestore)
	return s.reopen(cause)
}

func (s *Store) reopen(cause error) error {
	if err := s.open(); err != nil {
		log.Errorf("%s Database could not be reopened: %v", logcolors.LogBackup, err)
		return errors.Join(cause, err)
	}
	return cause
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
