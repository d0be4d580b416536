package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupService periodically copies the SQLite file aside and prunes old
// copies past the retention window.
type BackupService struct {
	dbPath        string
	storagePath   string
	intervalHours int
	retentionDays int
	logger        *zerolog.Logger
}

func NewBackupService(dbPath, storagePath string, intervalHours, retentionDays int, logger *zerolog.Logger) *BackupService {
	if intervalHours <= 0 {
		intervalHours = 24
	}
	return &BackupService{
		dbPath:        dbPath,
		storagePath:   storagePath,
		intervalHours: intervalHours,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

func (s *BackupService) Start(ctx context.Context) {
	s.logger.Info().
		Int("interval_hours", s.intervalHours).
		Str("path", s.storagePath).
		Msg("Backup service started")

	ticker := time.NewTicker(time.Duration(s.intervalHours) * time.Hour)
	defer ticker.Stop()

	// Run first backup immediately
	if err := s.PerformBackup(); err != nil {
		s.logger.Error().Err(err).Msg("Initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PerformBackup(); err != nil {
				s.logger.Error().Err(err).Msg("Scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

func (s *BackupService) PerformBackup() error {
	if _, err := os.Stat(s.storagePath); os.IsNotExist(err) {
		if err := os.MkdirAll(s.storagePath, 0755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
	}

	timestamp := time.Now().Format("20060102_150405")
	backupFileName := fmt.Sprintf("backup_%s.db", timestamp)
	backupPath := filepath.Join(s.storagePath, backupFileName)

	s.logger.Info().Str("path", backupPath).Msg("Performing database backup")

	source, err := os.Open(s.dbPath)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	if err != nil {
		return err
	}

	s.logger.Info().Msg("Backup completed successfully")
	return nil
}

func (s *BackupService) CleanupOldBackups() {
	if s.retentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(s.storagePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read backup directory for cleanup")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("Deleting old backup")
			os.Remove(filepath.Join(s.storagePath, file.Name()))
		}
	}
}
