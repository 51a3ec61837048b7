// Package paperless integrates with the document store. Uploads come back
// with a task UUID; the task is then polled in two phases: a fast foreground
// phase for the common quick jobs, and a slow background phase for
// multi-minute processing, so the caller is never blocked indefinitely.
package paperless

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// API is the slice of the base client this service needs.
type API interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
}

const (
	defaultForegroundInterval = time.Second
	defaultForegroundAttempts = 30
	defaultBackgroundInterval = 10 * time.Second
	defaultBackgroundAttempts = 60
)

// PollOptions tunes the two polling phases. Zero values fall back to the
// defaults above.
type PollOptions struct {
	Interval           time.Duration
	MaxAttempts        int
	BackgroundInterval time.Duration
	BackgroundAttempts int
	// OnBackgroundTransition is invoked once when foreground polling gives
	// up and the task moves to background resolution.
	OnBackgroundTransition func(taskUUID string)
	// OnResolved is invoked with the final task state after background
	// resolution, for user-visible notification.
	OnResolved func(task *Task)
}

func (o *PollOptions) withDefaults() PollOptions {
	out := PollOptions{}
	if o != nil {
		out = *o
	}
	if out.Interval <= 0 {
		out.Interval = defaultForegroundInterval
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = defaultForegroundAttempts
	}
	if out.BackgroundInterval <= 0 {
		out.BackgroundInterval = defaultBackgroundInterval
	}
	if out.BackgroundAttempts <= 0 {
		out.BackgroundAttempts = defaultBackgroundAttempts
	}
	return out
}

// Service talks to the document-store endpoints.
type Service struct {
	api    API
	logger zerolog.Logger
}

// NewService creates a paperless Service.
func NewService(api API, logger zerolog.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// UploadDocument sends a document for ingestion and returns the background
// task handle.
func (s *Service) UploadDocument(ctx context.Context, entityType, entityID, fileName string, content []byte) (*UploadResult, error) {
	body := map[string]interface{}{
		"entity_type": entityType,
		"entity_id":   entityID,
		"file_name":   fileName,
		"content":     content,
	}
	raw, err := s.api.Post(ctx, "/paperless/documents/upload", body)
	if err != nil {
		return nil, err
	}
	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode upload result: %w", err)
	}
	if result.TaskUUID == "" {
		return nil, fmt.Errorf("upload response has no task_uuid")
	}
	return &result, nil
}

// TaskStatus fetches the current state of one task.
func (s *Service) TaskStatus(ctx context.Context, taskUUID string) (*Task, error) {
	raw, err := s.api.Get(ctx, "/paperless/tasks/"+taskUUID+"/status")
	if err != nil {
		return nil, err
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("decode task status: %w", err)
	}
	if task.TaskUUID == "" {
		task.TaskUUID = taskUUID
	}
	return &task, nil
}

// PollTaskStatus is the foreground phase: it polls every Interval until the
// task reaches SUCCESS or FAILURE, for at most MaxAttempts attempts. When
// attempts run out it fires OnBackgroundTransition once and returns a
// synthetic PROCESSING_BACKGROUND task instead of blocking further; the
// caller then owns scheduling ResolveBackgroundTask. Per-attempt request
// failures are logged and polling continues, except on the final attempt.
func (s *Service) PollTaskStatus(ctx context.Context, taskUUID string, opts *PollOptions) (*Task, error) {
	o := opts.withDefaults()

	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		task, err := s.TaskStatus(ctx, taskUUID)
		if err != nil {
			if attempt == o.MaxAttempts {
				return nil, fmt.Errorf("poll task %s: %w", taskUUID, err)
			}
			s.logger.Warn().Err(err).Str("task_uuid", taskUUID).Int("attempt", attempt).
				Msg("task status poll failed, continuing")
		} else if task.Status.IsTerminal() {
			return task, nil
		}

		if attempt == o.MaxAttempts {
			break
		}
		select {
		case <-time.After(o.Interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if o.OnBackgroundTransition != nil {
		o.OnBackgroundTransition(taskUUID)
	}
	s.logger.Info().Str("task_uuid", taskUUID).Msg("task still processing, moving to background polling")
	return &Task{TaskUUID: taskUUID, Status: StatusProcessingBackground}, nil
}

// ResolveBackgroundTask is the slow phase: it polls every BackgroundInterval
// for up to BackgroundAttempts. On a terminal status it reports the outcome
// to the sync-status endpoint and fires OnResolved. If all attempts are
// exhausted it reports a synthetic FAILURE carrying the last error, so the
// server is never left believing the file is still syncing.
func (s *Service) ResolveBackgroundTask(ctx context.Context, taskUUID, fileID string, opts *PollOptions) (*Task, error) {
	o := opts.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= o.BackgroundAttempts; attempt++ {
		task, err := s.TaskStatus(ctx, taskUUID)
		if err != nil {
			lastErr = err
			s.logger.Warn().Err(err).Str("task_uuid", taskUUID).Int("attempt", attempt).
				Msg("background task poll failed, continuing")
		} else if task.Status.IsTerminal() {
			if err := s.reportOutcome(ctx, task, fileID); err != nil {
				return nil, err
			}
			if o.OnResolved != nil {
				o.OnResolved(task)
			}
			return task, nil
		}

		if attempt == o.BackgroundAttempts {
			break
		}
		select {
		case <-time.After(o.BackgroundInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Exhausted: mark the task failed server-side with whatever we know.
	msg := "background task did not complete in time"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	failed := &Task{TaskUUID: taskUUID, Status: StatusFailure, Error: msg}
	if err := s.reportOutcome(ctx, failed, fileID); err != nil {
		return nil, err
	}
	if o.OnResolved != nil {
		o.OnResolved(failed)
	}
	return failed, nil
}

func (s *Service) reportOutcome(ctx context.Context, task *Task, fileID string) error {
	update := syncUpdate{
		TaskUUID:     task.TaskUUID,
		FileID:       fileID,
		Status:       task.Status,
		ErrorMessage: task.Error,
	}
	if _, err := s.api.Post(ctx, "/paperless/entity-files/update-background-task", update); err != nil {
		return fmt.Errorf("report task outcome: %w", err)
	}
	return nil
}

// Cleanup asks the server to purge orphaned document-store state.
func (s *Service) Cleanup(ctx context.Context) error {
	_, err := s.api.Post(ctx, "/paperless/cleanup", nil)
	return err
}
