package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type SessionGCTask struct {
	Task
	sessions SessionCollector
}

func NewSessionGCTask(sessions SessionCollector) *SessionGCTask {
	task := &SessionGCTask{
		Task:     NewTask(TaskTypeSessionGC, "sessions"),
		sessions: sessions,
	}
	task.MaxRetries = 0
	return task
}

func (t *SessionGCTask) Execute(ctx context.Context) error {
	if err := t.sessions.RunGC(); err != nil {
		return fmt.Errorf("session GC failed: %w", err)
	}
	slog.Debug("Session store GC completed", "duration", t.GetDuration())
	return nil
}

// ReloadRolesTask re-reads the role file so role changes apply to the next
// login without a restart.
type ReloadRolesTask struct {
	Task
	roles RoleLoader
}

func NewReloadRolesTask(roles RoleLoader) *ReloadRolesTask {
	task := &ReloadRolesTask{
		Task:  NewTask(TaskTypeReloadRoles, "roles"),
		roles: roles,
	}
	task.MaxRetries = 0
	return task
}

func (t *ReloadRolesTask) Execute(ctx context.Context) error {
	if err := t.roles.Load(); err != nil {
		return fmt.Errorf("failed to reload roles: %w", err)
	}
	return nil
}
