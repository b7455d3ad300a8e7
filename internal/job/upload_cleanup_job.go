package job

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// UploadCleanupJob removes temp uploads older than maxAge. The ingest
// handler deletes its own upload after processing; this covers files
// orphaned by a crash between save and cleanup.
type UploadCleanupJob struct {
	dir    string
	maxAge time.Duration
}

func NewUploadCleanupJob(dir string, maxAge time.Duration) *UploadCleanupJob {
	return &UploadCleanupJob{dir: dir, maxAge: maxAge}
}

func (j *UploadCleanupJob) Name() string {
	return "upload_cleanup"
}

func (j *UploadCleanupJob) Run(ctx context.Context) error {
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("dir", j.dir))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale upload", zap.String("path", path), zap.Error(err))
			continue
		}
		logger.Info("stale upload removed", zap.String("path", path))
	}
	return nil
}
