package scheduler

import (
	"github.com/stackfolio/stackfolio/internal/clientdata"
	"github.com/stackfolio/stackfolio/internal/database"
	"github.com/stackfolio/stackfolio/internal/modules/auth"
)

// SessionPurgeJob removes expired sessions and one-time codes.
type SessionPurgeJob struct {
	auth *auth.Service
}

func NewSessionPurgeJob(authService *auth.Service) *SessionPurgeJob {
	return &SessionPurgeJob{auth: authService}
}

func (j *SessionPurgeJob) Name() string { return "session_purge" }

func (j *SessionPurgeJob) Run() error {
	j.auth.PurgeExpired()
	return nil
}

// CacheCleanupJob evicts expired rows from the client-data cache.
type CacheCleanupJob struct {
	cleanup *clientdata.CleanupJob
}

func NewCacheCleanupJob(cleanup *clientdata.CleanupJob) *CacheCleanupJob {
	return &CacheCleanupJob{cleanup: cleanup}
}

func (j *CacheCleanupJob) Name() string { return "cache_cleanup" }

func (j *CacheCleanupJob) Run() error {
	j.cleanup.Run()
	return nil
}

// WALCheckpointJob truncates the write-ahead logs so they do not grow
// unbounded on long-running deployments.
type WALCheckpointJob struct {
	databases []*database.DB
}

func NewWALCheckpointJob(databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{databases: databases}
}

func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

func (j *WALCheckpointJob) Run() error {
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			return err
		}
	}
	return nil
}
