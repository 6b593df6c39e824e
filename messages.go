package live

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Blob is an inline data part: base64 payload tagged with a mime type. The
// codec passes the payload through opaquely and never re-encodes it.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ExecutableCode carries an executable-code style payload inside a model turn.
type ExecutableCode struct {
	Language string `json:"language,omitempty"`
	Code     string `json:"code,omitempty"`
}

// Part is one fragment of a turn: text, inline data, or executable code.
type Part struct {
	Text           string          `json:"text,omitempty"`
	InlineData     *Blob           `json:"inlineData,omitempty"`
	ExecutableCode *ExecutableCode `json:"executableCode,omitempty"`
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func InlineDataPart(mimeType, base64Data string) Part {
	return Part{InlineData: &Blob{MimeType: mimeType, Data: base64Data}}
}

// Content is an ordered sequence of parts attributed to a role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// MediaChunk is one realtime media fragment, distinct from conversational
// content in that it implies no turn boundary.
type MediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FunctionCall is a single server-initiated tool invocation. Args is an
// untyped bag; see the tools package for schema-checked decoding.
type FunctionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls"`
}

type ToolCallCancellation struct {
	IDs []string `json:"ids"`
}

// FunctionResponse answers one previously received function call by id.
type FunctionResponse struct {
	ID       string         `json:"id"`
	Response map[string]any `json:"response"`
}

// ServerContent carries a model turn and/or the interrupted and turn-complete
// markers. A single frame may combine a turn with a marker.
type ServerContent struct {
	ModelTurn    *Content `json:"modelTurn,omitempty"`
	Interrupted  bool     `json:"interrupted,omitempty"`
	TurnComplete bool     `json:"turnComplete,omitempty"`
}

type SetupComplete struct{}

// ServerMessage is the decoded inbound frame. Exactly one variant pointer is
// non-nil after a successful decode.
type ServerMessage struct {
	SetupComplete        *SetupComplete        `json:"setupComplete,omitempty"`
	ServerContent        *ServerContent        `json:"serverContent,omitempty"`
	ToolCall             *ToolCall             `json:"toolCall,omitempty"`
	ToolCallCancellation *ToolCallCancellation `json:"toolCallCancellation,omitempty"`
}

// ParseError reports an inbound frame that did not match any known variant.
// It is a recoverable, per-frame condition: the session logs it and keeps
// reading.
type ParseError struct {
	Raw    []byte
	Reason string
}

func (e *ParseError) Error() string {
	raw := string(e.Raw)
	if len(raw) > 256 {
		raw = raw[:256] + "..."
	}
	return fmt.Sprintf("unparseable server frame (%s): %s", e.Reason, raw)
}

// DecodeServerMessage decodes a raw frame into one of the known server
// message variants. Unknown or malformed frames yield a *ParseError, never a
// panic, so the caller can log and continue.
func DecodeServerMessage(data []byte) (*ServerMessage, error) {
	msg := new(ServerMessage)
	if err := sonic.Unmarshal(data, msg); err != nil {
		return nil, &ParseError{Raw: data, Reason: err.Error()}
	}
	if msg.SetupComplete == nil &&
		msg.ServerContent == nil &&
		msg.ToolCall == nil &&
		msg.ToolCallCancellation == nil {
		return nil, &ParseError{Raw: data, Reason: "no known message kind"}
	}
	return msg, nil
}

// Outbound wire envelopes. The setup message is built by the session itself,
// never by the caller.

type setupPayload struct {
	Model             string            `json:"model"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
}

type clientContentPayload struct {
	Turns        []Content `json:"turns"`
	TurnComplete bool      `json:"turnComplete"`
}

type realtimeInputPayload struct {
	MediaChunks []MediaChunk `json:"mediaChunks"`
}

type toolResponsePayload struct {
	FunctionResponses []FunctionResponse `json:"functionResponses"`
}

type clientEnvelope struct {
	Setup         *setupPayload         `json:"setup,omitempty"`
	ClientContent *clientContentPayload `json:"clientContent,omitempty"`
	RealtimeInput *realtimeInputPayload `json:"realtimeInput,omitempty"`
	ToolResponse  *toolResponsePayload  `json:"toolResponse,omitempty"`
}

func EncodeSetup(cfg *SessionConfig) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	payload := &setupPayload{
		Model:            cfg.Model,
		GenerationConfig: cfg.GenerationConfig,
		Tools:            cfg.Tools,
	}
	if cfg.SystemInstruction != "" {
		payload.SystemInstruction = &Content{
			Parts: []Part{{Text: cfg.SystemInstruction}},
		}
	}
	return sonic.Marshal(&clientEnvelope{Setup: payload})
}

func EncodeClientContent(parts []Part, turnComplete bool) ([]byte, error) {
	if len(parts) == 0 {
		return nil, errors.New("no parts provided")
	}
	return sonic.Marshal(&clientEnvelope{
		ClientContent: &clientContentPayload{
			Turns:        []Content{{Role: "user", Parts: parts}},
			TurnComplete: turnComplete,
		},
	})
}

func EncodeRealtimeInput(chunks []MediaChunk) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no media chunks provided")
	}
	for i, chunk := range chunks {
		if chunk.MimeType == "" {
			return nil, fmt.Errorf("media chunk %d has no mime type", i)
		}
		if chunk.Data == "" {
			return nil, fmt.Errorf("media chunk %d has no data", i)
		}
	}
	return sonic.Marshal(&clientEnvelope{
		RealtimeInput: &realtimeInputPayload{MediaChunks: chunks},
	})
}

func EncodeToolResponse(responses []FunctionResponse) ([]byte, error) {
	if len(responses) == 0 {
		return nil, errors.New("no function responses provided")
	}
	for i, resp := range responses {
		if resp.ID == "" {
			return nil, fmt.Errorf("function response %d has no call id", i)
		}
	}
	return sonic.Marshal(&clientEnvelope{
		ToolResponse: &toolResponsePayload{FunctionResponses: responses},
	})
}
