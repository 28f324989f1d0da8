package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID identifies one warden invocation.
	FieldRunID = "run_id"
	// FieldAction is the lifecycle action being performed.
	FieldAction = "action"
	FieldPID    = "pid"
	// FieldPIDFile is the lock path.
	FieldPIDFile = "pid_file"
)
