package tools

import (
	live "github.com/bt-bridge/gemini-live"
)

// Tool names the task assistant declares to the model.
const (
	ToolUpdateTaskProgress = "update_task_progress"
	ToolMarkAllComplete    = "mark_all_complete"
	ToolGetTaskState       = "get_task_state"
)

// Step statuses accepted over the wire.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusDone    = "done"
)

// ToolArgs is the decoded argument variant of one function call. The wire
// format guarantees shape only by convention, so decoding falls back to
// UnknownArgs instead of failing.
type ToolArgs interface {
	isToolArgs()
}

type UpdateTaskProgressArgs struct {
	StepID string
	Status string
}

type MarkAllCompleteArgs struct{}

type GetTaskStateArgs struct{}

// UnknownArgs holds calls whose name or argument shape is not recognized,
// args kept verbatim for the consumer to inspect.
type UnknownArgs struct {
	Name string
	Raw  map[string]any
}

func (UpdateTaskProgressArgs) isToolArgs() {}
func (MarkAllCompleteArgs) isToolArgs()    {}
func (GetTaskStateArgs) isToolArgs()       {}
func (UnknownArgs) isToolArgs()            {}

// DecodeArgs validates the untyped args of a function call against the schema
// of the named tool. It never returns an error: anything that does not match
// comes back as UnknownArgs.
func DecodeArgs(name string, raw map[string]any) ToolArgs {
	switch name {
	case ToolUpdateTaskProgress:
		stepID, okID := asString(raw["stepId"])
		status, okStatus := asString(raw["status"])
		if !okID || !okStatus || stepID == "" || !validStatus(status) {
			return UnknownArgs{Name: name, Raw: raw}
		}
		return UpdateTaskProgressArgs{StepID: stepID, Status: status}
	case ToolMarkAllComplete:
		return MarkAllCompleteArgs{}
	case ToolGetTaskState:
		return GetTaskStateArgs{}
	}
	return UnknownArgs{Name: name, Raw: raw}
}

func validStatus(status string) bool {
	switch status {
	case StatusPending, StatusActive, StatusDone:
		return true
	}
	return false
}

// Helpers for loose-typed field extraction
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Declarations returns the function declarations for the task-assistant
// tools, ready to drop into SessionConfig.Tools.
func Declarations() []live.FunctionDeclaration {
	return []live.FunctionDeclaration{
		{
			Name:        ToolUpdateTaskProgress,
			Description: "Update the status of a single step in the current procedure.",
			Parameters: &live.Schema{
				Type: "object",
				Properties: map[string]*live.Schema{
					"stepId": {
						Type:        "string",
						Description: "Identifier of the step to update.",
					},
					"status": {
						Type: "string",
						Enum: []string{StatusPending, StatusActive, StatusDone},
					},
				},
				Required: []string{"stepId", "status"},
			},
		},
		{
			Name:        ToolMarkAllComplete,
			Description: "Mark every step of the current procedure as done.",
		},
		{
			Name:        ToolGetTaskState,
			Description: "Return the current procedure state as JSON.",
		},
	}
}
