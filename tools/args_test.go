package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeArgs(t *testing.T) {
	tests := []struct {
		name string
		tool string
		raw  map[string]any
		want ToolArgs
	}{
		{
			name: "update task progress",
			tool: ToolUpdateTaskProgress,
			raw:  map[string]any{"stepId": "grind", "status": "done"},
			want: UpdateTaskProgressArgs{StepID: "grind", Status: "done"},
		},
		{
			name: "update with active status",
			tool: ToolUpdateTaskProgress,
			raw:  map[string]any{"stepId": "tamp", "status": "active"},
			want: UpdateTaskProgressArgs{StepID: "tamp", Status: "active"},
		},
		{
			name: "update missing step id",
			tool: ToolUpdateTaskProgress,
			raw:  map[string]any{"status": "done"},
			want: UnknownArgs{Name: ToolUpdateTaskProgress, Raw: map[string]any{"status": "done"}},
		},
		{
			name: "update with bogus status",
			tool: ToolUpdateTaskProgress,
			raw:  map[string]any{"stepId": "grind", "status": "finished"},
			want: UnknownArgs{Name: ToolUpdateTaskProgress, Raw: map[string]any{"stepId": "grind", "status": "finished"}},
		},
		{
			name: "update with non-string step id",
			tool: ToolUpdateTaskProgress,
			raw:  map[string]any{"stepId": 3, "status": "done"},
			want: UnknownArgs{Name: ToolUpdateTaskProgress, Raw: map[string]any{"stepId": 3, "status": "done"}},
		},
		{
			name: "mark all complete ignores args",
			tool: ToolMarkAllComplete,
			raw:  map[string]any{"anything": true},
			want: MarkAllCompleteArgs{},
		},
		{
			name: "get task state",
			tool: ToolGetTaskState,
			raw:  nil,
			want: GetTaskStateArgs{},
		},
		{
			name: "unknown tool",
			tool: "restart_server",
			raw:  map[string]any{"force": true},
			want: UnknownArgs{Name: "restart_server", Raw: map[string]any{"force": true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeArgs(tt.tool, tt.raw))
		})
	}
}

func TestDeclarations(t *testing.T) {
	decls := Declarations()
	require.Len(t, decls, 3)

	byName := map[string]int{}
	for i, d := range decls {
		byName[d.Name] = i
	}
	require.Contains(t, byName, ToolUpdateTaskProgress)
	require.Contains(t, byName, ToolMarkAllComplete)
	require.Contains(t, byName, ToolGetTaskState)

	update := decls[byName[ToolUpdateTaskProgress]]
	require.NotNil(t, update.Parameters)
	assert.Equal(t, "object", update.Parameters.Type)
	assert.ElementsMatch(t, []string{"stepId", "status"}, update.Parameters.Required)
	require.Contains(t, update.Parameters.Properties, "status")
	assert.ElementsMatch(t,
		[]string{StatusPending, StatusActive, StatusDone},
		update.Parameters.Properties["status"].Enum,
	)
}
