package agents

import (
	"strings"
	"sync"

	live "github.com/bt-bridge/gemini-live"
	"github.com/bt-bridge/gemini-live/shared"
	"github.com/bt-bridge/gemini-live/tools"
	"github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepActive  StepStatus = "active"
	StepDone    StepStatus = "done"
)

type Step struct {
	ID     string     `json:"stepId"`
	Title  string     `json:"title"`
	Status StepStatus `json:"status"`
}

// Procedure is the ordered list of steps the assistant walks the user
// through.
type Procedure struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Tools returns the session tool declarations the task agent answers.
func (p *Procedure) Tools() []live.Tool {
	return []live.Tool{{FunctionDeclarations: tools.Declarations()}}
}

// stepState mirrors the JSON the model streams inside text parts when it
// reports progress conversationally instead of via a tool call.
type stepState struct {
	StepID string `json:"stepId"`
	Status string `json:"status"`
}

// TaskAgent is the step-tracking consumer of a live session. It accumulates
// streamed text in arrival order, recovers progress JSON from partial turns,
// answers the session's tool calls, and prints a running transcript.
type TaskAgent struct {
	logger  shared.LoggerAdapter
	printer *shared.Printer
	session *live.Session

	mu       sync.Mutex
	name     string
	steps    []Step
	turnText strings.Builder

	done     chan struct{}
	doneOnce sync.Once
	unsubs   []func()
}

// Spawn wires the agent to the session's events. The returned channel closes
// when the session does. Spawn does not connect the session; subscribe
// first, then call session.Connect.
func (a *TaskAgent) Spawn(
	logger shared.LoggerAdapter,
	session *live.Session,
	procedure *Procedure,
	printer *shared.Printer,
) (<-chan struct{}, error) {
	if logger == nil {
		return nil, shared.ErrNoLogger
	}
	if session == nil {
		return nil, shared.ErrNoSession
	}
	if procedure == nil || len(procedure.Steps) == 0 {
		return nil, shared.ErrNoProcedure
	}
	if printer == nil {
		return nil, shared.ErrNoPrinter
	}
	a.logger = logger
	a.printer = printer
	a.session = session
	a.name = procedure.Name
	a.steps = make([]Step, len(procedure.Steps))
	copy(a.steps, procedure.Steps)
	for i := range a.steps {
		if a.steps[i].Status == "" {
			a.steps[i].Status = StepPending
		}
	}
	a.done = make(chan struct{})

	a.unsubs = append(a.unsubs,
		session.Subscribe(live.EventOpen, func(live.Event) {
			a.logger.Info("task agent attached", zap.String("procedure", a.name))
			a.println("🤖 Session open: " + a.name)
		}),
		session.Subscribe(live.EventContent, a.onContent),
		session.Subscribe(live.EventTurnComplete, func(live.Event) { a.flushTurn() }),
		session.Subscribe(live.EventInterrupted, func(live.Event) { a.discardTurn() }),
		session.Subscribe(live.EventToolCall, a.onToolCall),
		session.Subscribe(live.EventToolCallCancellation, func(ev live.Event) {
			// Responses go out synchronously during toolcall dispatch, so a
			// cancellation arriving later has nothing left to cancel.
			a.logger.Debug("tool calls cancelled", zap.Strings("ids", ev.CancelledIDs))
		}),
		session.Subscribe(live.EventLog, func(ev live.Event) {
			a.logger.Warn("session log", zap.String("detail", ev.Log))
		}),
		session.Subscribe(live.EventClose, func(ev live.Event) {
			a.println("👋 Session closed: " + ev.CloseReason)
			a.doneOnce.Do(func() { close(a.done) })
		}),
	)
	return a.done, nil
}

func (a *TaskAgent) Done() <-chan struct{} {
	return a.done
}

// Close detaches the agent and hangs up the session.
func (a *TaskAgent) Close() error {
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil
	if a.session != nil {
		a.session.Disconnect()
	}
	a.doneOnce.Do(func() { close(a.done) })
	return nil
}

// Steps returns a snapshot of the current procedure state.
func (a *TaskAgent) Steps() []Step {
	a.mu.Lock()
	defer a.mu.Unlock()
	steps := make([]Step, len(a.steps))
	copy(steps, a.steps)
	return steps
}

// onContent appends text parts in exact arrival order. The accumulated turn
// is re-scanned for progress JSON on every delta since the model may stream
// an object across several parts.
func (a *TaskAgent) onContent(ev live.Event) {
	if ev.Content == nil || ev.Content.ModelTurn == nil {
		return
	}
	a.mu.Lock()
	for _, part := range ev.Content.ModelTurn.Parts {
		if part.Text != "" {
			a.turnText.WriteString(part.Text)
		}
	}
	text := a.turnText.String()
	a.mu.Unlock()
	if state, ok := recoverStepState(text); ok {
		if a.setStepStatus(state.StepID, StepStatus(state.Status)) {
			a.println("📍 " + state.StepID + " → " + state.Status)
		}
	}
}

func (a *TaskAgent) flushTurn() {
	a.mu.Lock()
	text := strings.TrimSpace(a.turnText.String())
	a.turnText.Reset()
	a.mu.Unlock()
	if text != "" {
		a.println("🤖 " + text)
	}
}

func (a *TaskAgent) discardTurn() {
	a.mu.Lock()
	discarded := a.turnText.Len()
	a.turnText.Reset()
	a.mu.Unlock()
	a.logger.Debug("discarded interrupted turn", zap.Int("bytes", discarded))
}

func (a *TaskAgent) onToolCall(ev live.Event) {
	if ev.ToolCall == nil {
		return
	}
	responses := make([]live.FunctionResponse, 0, len(ev.ToolCall.FunctionCalls))
	for _, call := range ev.ToolCall.FunctionCalls {
		responses = append(responses, a.answer(call))
	}
	if err := a.session.SendToolResponse(responses); err != nil {
		a.logger.Error("sending tool response", err)
	}
}

func (a *TaskAgent) answer(call live.FunctionCall) live.FunctionResponse {
	switch args := tools.DecodeArgs(call.Name, call.Args).(type) {
	case tools.UpdateTaskProgressArgs:
		ok := a.setStepStatus(args.StepID, StepStatus(args.Status))
		if ok {
			a.println("✅ " + args.StepID + " → " + args.Status)
		} else {
			a.logger.Warn("update for unknown step", zap.String("stepId", args.StepID))
		}
		return successResponse(call.ID, ok)
	case tools.MarkAllCompleteArgs:
		a.mu.Lock()
		for i := range a.steps {
			a.steps[i].Status = StepDone
		}
		a.mu.Unlock()
		a.println("🏁 All steps complete")
		return successResponse(call.ID, true)
	case tools.GetTaskStateArgs:
		return live.FunctionResponse{
			ID: call.ID,
			Response: map[string]any{
				"output": map[string]any{
					"procedure": a.name,
					"steps":     a.Steps(),
				},
			},
		}
	case tools.UnknownArgs:
		a.logger.Warn(
			"unrecognized tool call",
			zap.String("name", args.Name),
			zap.Any("args", args.Raw),
		)
		return live.FunctionResponse{
			ID: call.ID,
			Response: map[string]any{
				"output": map[string]any{
					"success": false,
					"error":   "unrecognized tool or arguments",
				},
			},
		}
	}
	return successResponse(call.ID, false)
}

func successResponse(callID string, ok bool) live.FunctionResponse {
	return live.FunctionResponse{
		ID: callID,
		Response: map[string]any{
			"output": map[string]any{"success": ok},
		},
	}
}

func (a *TaskAgent) setStepStatus(stepID string, status StepStatus) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.steps {
		if a.steps[i].ID == stepID {
			a.steps[i].Status = status
			return true
		}
	}
	return false
}

func (a *TaskAgent) println(s string) {
	if err := a.printer.Writeln(s, 0); err != nil {
		a.logger.Error("writing transcript", err)
	}
}

// recoverStepState extracts a {"stepId","status"} object from possibly
// partial streamed text. The model may still be mid-object, so the candidate
// is repaired before parsing.
func recoverStepState(text string) (stepState, bool) {
	start := strings.LastIndexByte(text, '{')
	if start < 0 {
		return stepState{}, false
	}
	candidate := text[start:]
	fixed, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return stepState{}, false
	}
	var state stepState
	if err := sonic.Unmarshal([]byte(fixed), &state); err != nil {
		return stepState{}, false
	}
	if state.StepID == "" || state.Status == "" {
		return stepState{}, false
	}
	switch StepStatus(state.Status) {
	case StepPending, StepActive, StepDone:
		return state, true
	}
	return stepState{}, false
}
