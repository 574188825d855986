package models

// FailureKind tags why a workflow-backed action failed.
type FailureKind string

const (
	// FailureTransport means the workflow engine could not be reached or did
	// not answer; the action may succeed if retried.
	FailureTransport FailureKind = "transport"
	// FailureWorkflow means the engine answered but the flow failed or
	// returned unusable outputs.
	FailureWorkflow FailureKind = "workflow"
	// FailureConfig means the server is missing settings for the engine.
	FailureConfig FailureKind = "config"
	// FailureInput means the request itself was unusable.
	FailureInput FailureKind = "input"
	// FailureStorage means the engine succeeded but the database write did
	// not; repeating the call is safe.
	FailureStorage FailureKind = "storage"
)

// ProvisionResult is the outcome of TriggerProvisioning. Failures are
// reported here rather than as Go errors so callers can render them inline.
type ProvisionResult struct {
	Success    bool        `json:"success"`
	URL        string      `json:"url,omitempty"`
	InstanceID string      `json:"instanceId,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       FailureKind `json:"kind,omitempty"`
	Retryable  bool        `json:"retryable,omitempty"`
}

// TerminationResult is the outcome of TriggerTermination.
type TerminationResult struct {
	Success   bool        `json:"success"`
	Updated   int64       `json:"updated"`
	Error     string      `json:"error,omitempty"`
	Kind      FailureKind `json:"kind,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

// FlowResult is the outcome of running the free-form message flow.
type FlowResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SyncResult reports a status reconciliation pass.
type SyncResult struct {
	Synced int      `json:"synced"`
	Errors []string `json:"errors"`
}

// Question is one clarifying multiple-choice question of a plan.
type Question struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Plan is the LLM's analysis of a project description.
type Plan struct {
	Analysis  string     `json:"analysis"`
	Questions []Question `json:"questions"`
}
