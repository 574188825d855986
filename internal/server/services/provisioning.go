package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/logging"
	"github.com/dmitrijs2005/ideforge/internal/server/archive"
	"github.com/dmitrijs2005/ideforge/internal/server/kestra"
	"github.com/dmitrijs2005/ideforge/internal/server/metrics"
	"github.com/dmitrijs2005/ideforge/internal/server/models"
	"github.com/dmitrijs2005/ideforge/internal/server/repositories/repomanager"
)

// Workflow runs a named flow and waits for it to finish.
type Workflow interface {
	Execute(ctx context.Context, flowID string, inputs map[string]string) (*kestra.Execution, error)
}

// Flows names the workflow-engine flows used by the server.
type Flows struct {
	Provision string
	Terminate string
	Message   string
}

const (
	outputURL        = "final_https_link"
	outputInstanceID = "instance_id"
	outputResponse   = "response_text"
)

// ProvisioningService drives the workflow engine and records the outcome on
// the project row.
type ProvisioningService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	workflow    Workflow
	flows       Flows
	archive     archive.Archiver
	log         logging.Logger
}

func NewProvisioningService(db *sql.DB, m repomanager.RepositoryManager, wf Workflow, flows Flows, arch archive.Archiver, log logging.Logger) *ProvisioningService {
	if arch == nil {
		arch = archive.NoopArchiver{}
	}
	return &ProvisioningService{
		db:          db,
		repomanager: m,
		workflow:    wf,
		flows:       flows,
		archive:     arch,
		log:         log.With("module", "provisioning"),
	}
}

// TriggerProvisioning runs the provisioning flow for a project and waits for
// it. On success the project becomes active with the returned url and
// instance id. Any failure marks the project terminated. Database errors
// after the flow ran are logged, never returned.
func (s *ProvisioningService) TriggerProvisioning(ctx context.Context, name, prompt, projectID string) models.ProvisionResult {
	started := time.Now()
	exec, err := s.execute(ctx, s.flows.Provision, map[string]string{
		"project_id":   projectID,
		"project_name": name,
		"prompt":       prompt,
	})

	var res models.ProvisionResult
	if err != nil {
		res = provisionFailure(err)
	} else {
		res = provisionOutcome(exec)
	}

	// The flow already ran; the caller going away must not drop the write.
	writeCtx := context.WithoutCancel(ctx)
	repo := s.repomanager.Projects(s.db)
	if res.Success {
		if err := repo.MarkActive(writeCtx, projectID, res.URL, res.InstanceID); err != nil {
			s.log.Warn(ctx, "instance provisioned but project not updated",
				"project_id", projectID, "instance_id", res.InstanceID, "error", err)
		} else {
			s.log.Info(ctx, "project provisioned", "project_id", projectID, "instance_id", res.InstanceID)
		}
	} else {
		s.log.Warn(ctx, "provisioning failed", "project_id", projectID, "kind", res.Kind, "error", res.Error)
		if err := repo.SetStatus(writeCtx, projectID, models.StatusTerminated); err != nil {
			s.log.Warn(ctx, "failed to mark project terminated", "project_id", projectID, "error", err)
		} else {
			metrics.ProjectsTerminatedTotal.WithLabelValues("provision_failed").Inc()
		}
	}

	s.record(writeCtx, archive.Record{
		ProjectID:   projectID,
		ProjectName: name,
		InstanceID:  res.InstanceID,
		Flow:        s.flows.Provision,
		Prompt:      prompt,
		Success:     res.Success,
		URL:         res.URL,
		Error:       res.Error,
		Kind:        string(res.Kind),
		StartedAt:   started,
		FinishedAt:  time.Now(),
	})

	return res
}

// TriggerTermination runs the termination flow for an instance and marks
// every project carrying it terminated. Repeating the call is safe.
func (s *ProvisioningService) TriggerTermination(ctx context.Context, instanceID string) models.TerminationResult {
	if instanceID == "" {
		return models.TerminationResult{Error: "Instance ID is required", Kind: models.FailureInput}
	}

	exec, err := s.execute(ctx, s.flows.Terminate, map[string]string{"instance_id": instanceID})
	if err == nil && exec.Failed() {
		err = fmt.Errorf("Kestra execution %s ended in %s", exec.ID, exec.State.Current)
	}
	if err != nil {
		kind, retryable := classify(err)
		s.log.Warn(ctx, "termination failed", "instance_id", instanceID, "kind", kind, "error", err)
		return models.TerminationResult{Error: err.Error(), Kind: kind, Retryable: retryable}
	}

	n, err := s.repomanager.Projects(s.db).TerminateByInstanceID(context.WithoutCancel(ctx), instanceID)
	if err != nil {
		s.log.Warn(ctx, "instance terminated but projects not updated", "instance_id", instanceID, "error", err)
		return models.TerminationResult{Error: "Database error: " + err.Error(), Kind: models.FailureStorage, Retryable: true}
	}
	metrics.ProjectsTerminatedTotal.WithLabelValues("terminated").Add(float64(n))
	s.log.Info(ctx, "instance terminated", "instance_id", instanceID, "projects", n)

	return models.TerminationResult{Success: true, Updated: n}
}

// RunFlow sends a free-form message to the message flow and returns its
// response text.
func (s *ProvisioningService) RunFlow(ctx context.Context, message string) models.FlowResult {
	if message == "" {
		return models.FlowResult{Error: "Message is required"}
	}

	exec, err := s.execute(ctx, s.flows.Message, map[string]string{"custom_message": message})
	if err != nil {
		return models.FlowResult{Error: err.Error()}
	}
	text, ok := exec.Output(outputResponse)
	if !ok {
		return models.FlowResult{Error: "Kestra response is missing " + outputResponse}
	}
	return models.FlowResult{Success: true, Message: text}
}

// ProvisionProject checks ownership and state, then provisions the project
// under its stored name.
func (s *ProvisioningService) ProvisionProject(ctx context.Context, userID, projectID, prompt string) (models.ProvisionResult, error) {
	if !validID(projectID) {
		return models.ProvisionResult{}, ErrProjectNotFound
	}
	p, err := s.repomanager.Projects(s.db).GetForUser(ctx, userID, projectID)
	if err != nil {
		return models.ProvisionResult{}, notFound(err)
	}
	if p.Status != models.StatusProvisioning {
		return models.ProvisionResult{}, fmt.Errorf("%w: project is %s, not provisioning", common.ErrValidation, p.Status)
	}
	if prompt == "" {
		prompt = p.Description
	}
	return s.TriggerProvisioning(ctx, p.Name, prompt, p.ID), nil
}

// TerminateProject checks ownership and terminates the project's instance.
func (s *ProvisioningService) TerminateProject(ctx context.Context, userID, projectID string) (models.TerminationResult, error) {
	if !validID(projectID) {
		return models.TerminationResult{}, ErrProjectNotFound
	}
	p, err := s.repomanager.Projects(s.db).GetForUser(ctx, userID, projectID)
	if err != nil {
		return models.TerminationResult{}, notFound(err)
	}
	if p.InstanceID == nil || *p.InstanceID == "" {
		return models.TerminationResult{}, fmt.Errorf("%w: project has no instance", common.ErrValidation)
	}
	return s.TriggerTermination(ctx, *p.InstanceID), nil
}

func (s *ProvisioningService) execute(ctx context.Context, flow string, inputs map[string]string) (*kestra.Execution, error) {
	timer := metrics.NewTimer()
	exec, err := s.workflow.Execute(ctx, flow, inputs)
	timer.ObserveDuration(metrics.WorkflowDuration.WithLabelValues(flow))

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.WorkflowRunsTotal.WithLabelValues(flow, outcome).Inc()
	return exec, err
}

func (s *ProvisioningService) record(ctx context.Context, rec archive.Record) {
	if err := s.archive.Archive(ctx, rec); err != nil {
		s.log.Warn(ctx, "failed to archive provisioning run", "project_id", rec.ProjectID, "error", err)
	}
}

func provisionOutcome(exec *kestra.Execution) models.ProvisionResult {
	if exec.Failed() {
		return models.ProvisionResult{
			Error: fmt.Sprintf("Kestra execution %s ended in %s", exec.ID, exec.State.Current),
			Kind:  models.FailureWorkflow,
		}
	}
	url, ok := exec.Output(outputURL)
	if !ok {
		return models.ProvisionResult{Error: "Kestra response is missing " + outputURL, Kind: models.FailureWorkflow}
	}
	instanceID, ok := exec.Output(outputInstanceID)
	if !ok {
		return models.ProvisionResult{Error: "Kestra response is missing " + outputInstanceID, Kind: models.FailureWorkflow}
	}
	return models.ProvisionResult{Success: true, URL: url, InstanceID: instanceID}
}

func provisionFailure(err error) models.ProvisionResult {
	kind, retryable := classify(err)
	return models.ProvisionResult{Error: err.Error(), Kind: kind, Retryable: retryable}
}

// classify tags a workflow error. Transport failures and gateway statuses
// may succeed on retry; everything else is terminal.
func classify(err error) (models.FailureKind, bool) {
	var se *kestra.StatusError
	switch {
	case errors.Is(err, kestra.ErrNotConfigured):
		return models.FailureConfig, false
	case errors.Is(err, kestra.ErrTransport):
		return models.FailureTransport, true
	case errors.As(err, &se):
		if se.Retryable() {
			return models.FailureTransport, true
		}
		return models.FailureWorkflow, false
	default:
		return models.FailureWorkflow, false
	}
}
