package worker

import (
	"fmt"
	"os"
	"path/filepath"

	"happy-store/internal/controller"
	"happy-store/internal/util"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BackupWorker periodically writes an export snapshot to disk so there is a
// recoverable copy even if the operator never exports manually.
type BackupWorker struct {
	ctrl   *controller.Controller
	dir    string
	sched  *cron.Cron
	logger *zap.Logger
}

// NewBackupWorker creates a backup worker writing into dir
func NewBackupWorker(ctrl *controller.Controller, dir string) *BackupWorker {
	return &BackupWorker{
		ctrl:   ctrl,
		dir:    dir,
		sched:  cron.New(),
		logger: util.GetLogger(),
	}
}

// Start schedules the backup job with the given cron spec (e.g. "0 3 * * *")
func (w *BackupWorker) Start(spec string) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}

	if _, err := w.sched.AddFunc(spec, w.runOnce); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}

	w.sched.Start()
	w.logger.Info("Backup worker started", zap.String("schedule", spec), zap.String("dir", w.dir))
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish
func (w *BackupWorker) Stop() {
	ctx := w.sched.Stop()
	<-ctx.Done()
}

func (w *BackupWorker) runOnce() {
	filename, data, err := w.ctrl.ExportBackup()
	if err != nil {
		w.logger.Error("Scheduled backup failed", zap.Error(err))
		return
	}

	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.logger.Error("Failed to write scheduled backup", zap.String("path", path), zap.Error(err))
		return
	}

	w.logger.Info("Scheduled backup written", zap.String("path", path), zap.Int("bytes", len(data)))
}
