package paperless

// TaskStatus is the processing state of a document task inside the document
// store. PROCESSING_BACKGROUND never comes from the server; it is synthesized
// when foreground polling hands the task off to the background resolver.
type TaskStatus string

const (
	StatusPending              TaskStatus = "PENDING"
	StatusStarted              TaskStatus = "STARTED"
	StatusSuccess              TaskStatus = "SUCCESS"
	StatusFailure              TaskStatus = "FAILURE"
	StatusProcessingBackground TaskStatus = "PROCESSING_BACKGROUND"
)

// IsTerminal reports whether polling can stop on this status.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Task is one poll result for a background document task.
type Task struct {
	TaskUUID string     `json:"task_uuid"`
	Status   TaskStatus `json:"status"`
	Result   string     `json:"result,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// UploadResult is returned by a document upload; the task UUID identifies
// the asynchronous ingestion job to poll.
type UploadResult struct {
	TaskUUID string `json:"task_uuid"`
	FileID   string `json:"file_id,omitempty"`
}

// syncUpdate is posted back once a background task resolves so the file
// record's sync status is never left inconsistent with the task outcome.
type syncUpdate struct {
	TaskUUID     string     `json:"task_uuid"`
	FileID       string     `json:"file_id"`
	Status       TaskStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
}
