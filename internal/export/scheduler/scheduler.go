// Package scheduler provides automatic backup scheduling with retention.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/kimhsiao/squishylog/internal/export"
	"github.com/kimhsiao/squishylog/internal/logging"
)

// ExportInterval defines the scheduling frequency.
type ExportInterval string

const (
	IntervalManual  ExportInterval = "manual"
	IntervalDaily   ExportInterval = "daily"
	IntervalWeekly  ExportInterval = "weekly"
	IntervalMonthly ExportInterval = "monthly"
)

// ParseInterval validates an interval name. Empty means manual.
func ParseInterval(s string) (ExportInterval, error) {
	switch ExportInterval(s) {
	case "", IntervalManual:
		return IntervalManual, nil
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return ExportInterval(s), nil
	}
	return "", fmt.Errorf("unknown backup interval %q", s)
}

// SchedulerConfig holds the scheduler configuration.
type SchedulerConfig struct {
	Interval       ExportInterval // How often to export
	RetentionCount int            // Number of backups to keep (0 = unlimited)
	ExportDir      string         // Directory holding backups
}

// Scheduler runs backups on a fixed interval.
type Scheduler struct {
	service export.ExportServiceInterface
	config  *SchedulerConfig
	ticker  *time.Ticker
	stopCh  chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
}

// NewScheduler creates a new backup scheduler.
func NewScheduler(service export.ExportServiceInterface, config *SchedulerConfig) *Scheduler {
	if config.ExportDir == "" {
		config.ExportDir = "exports"
	}
	if config.RetentionCount < 0 {
		config.RetentionCount = 0
	}

	return &Scheduler{
		service: service,
		config:  config,
		stopCh:  make(chan struct{}),
	}
}

// Start begins automatic backups with an immediate first run. Manual mode
// does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.config.Interval == IntervalManual {
		logging.Info("Backup scheduler in manual mode, automatic backups disabled")
		return nil
	}

	dur, err := s.intervalDuration()
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}

	s.ticker = time.NewTicker(dur)
	logging.Info("Backup scheduler started", map[string]interface{}{
		"interval":        s.config.Interval,
		"retention_count": s.config.RetentionCount,
		"export_dir":      s.config.ExportDir,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.RunOnce(ctx); err != nil {
			logging.Error("Initial backup failed", err)
		}
		for {
			select {
			case <-s.ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					logging.Error("Scheduled backup failed", err)
				}
			case <-s.stopCh:
				logging.Info("Backup scheduler stopped")
				return
			case <-ctx.Done():
				logging.Info("Backup scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

// Stop shuts the scheduler down and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	s.stop.Do(func() {
		close(s.stopCh)
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
	s.wg.Wait()
}

// RunOnce performs one backup and applies the retention policy.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	result, err := s.service.Export(ctx, &export.ExportConfig{})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	logging.Debug("Scheduled backup written", map[string]interface{}{
		"file":       result.FilePath,
		"size_bytes": result.SizeBytes,
		"item_count": result.ItemCount,
	})

	if s.config.RetentionCount > 0 {
		// Retention failures never fail the backup itself
		if err := s.applyRetentionPolicy(); err != nil {
			logging.Error("Backup retention policy failed", err)
		}
	}

	return nil
}

// intervalDuration converts the interval to a time.Duration.
func (s *Scheduler) intervalDuration() (time.Duration, error) {
	switch s.config.Interval {
	case IntervalDaily:
		return 24 * time.Hour, nil
	case IntervalWeekly:
		return 7 * 24 * time.Hour, nil
	case IntervalMonthly:
		// Approximate as 30 days
		return 30 * 24 * time.Hour, nil
	case IntervalManual:
		return 0, fmt.Errorf("manual interval has no duration")
	default:
		return 0, fmt.Errorf("unknown interval: %s", s.config.Interval)
	}
}

// applyRetentionPolicy removes the oldest backups beyond the retention count.
func (s *Scheduler) applyRetentionPolicy() error {
	backups, err := ListBackups(s.config.ExportDir)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) <= s.config.RetentionCount {
		return nil
	}
	for _, backup := range backups[:len(backups)-s.config.RetentionCount] {
		if err := os.Remove(backup.Path); err != nil {
			logging.Error("Failed to delete old backup", err, map[string]interface{}{"path": backup.Path})
			continue
		}
		logging.Info("Deleted old backup", map[string]interface{}{"path": backup.Path})
	}
	return nil
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	Path      string
	SizeBytes int64
	ModTime   time.Time
}

// ListBackups returns the backups in exportDir, oldest first. Backup names
// embed their date, so name order is age order.
func ListBackups(exportDir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(exportDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !export.IsBackupName(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, err
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(exportDir, entry.Name()),
			SizeBytes: fi.Size(),
			ModTime:   fi.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Path < backups[j].Path
	})
	return backups, nil
}

// GetConfig returns the current scheduler configuration.
func (s *Scheduler) GetConfig() *SchedulerConfig {
	return s.config
}
