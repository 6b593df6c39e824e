package live

import (
	"fmt"
	"net/url"
	"os"

	"github.com/bt-bridge/gemini-live/shared"
	"github.com/goccy/go-yaml"
)

const (
	// DefaultEndpoint is the Live API bidirectional streaming endpoint.
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultTokenEndpoint issues short-lived credentials, see CreateEphemeralToken.
	DefaultTokenEndpoint = "https://generativelanguage.googleapis.com/v1alpha/auth_tokens:create"
)

type ResponseModality string

const (
	ModalityText  ResponseModality = "text"
	ModalityAudio ResponseModality = "audio"
)

type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName,omitempty"`
}

type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

type GenerationConfig struct {
	ResponseModalities ResponseModality `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig    `json:"speechConfig,omitempty"`
}

// Schema is the typed parameter schema of a declared tool, a small subset of
// JSON Schema sufficient for function declarations.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Tool declares caller functions and/or enables built-in tools. The built-in
// entries are empty objects on the wire.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch         map[string]any        `json:"googleSearch,omitempty"`
	CodeExecution        map[string]any        `json:"codeExecution,omitempty"`
}

// SessionConfig is the immutable per-connection-attempt configuration. It is
// supplied once to Connect and never mutated in place; changing the model or
// voice requires a disconnect and a fresh Connect with a new value.
type SessionConfig struct {
	// Endpoint is the WebSocket endpoint. Empty selects DefaultEndpoint.
	Endpoint string `json:"endpoint,omitempty"`

	// APIKey is the long-lived credential, attached as a connection
	// parameter. AccessToken, when set, takes precedence (see
	// CreateEphemeralToken).
	APIKey      string `json:"apiKey,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`

	Model             string            `json:"model"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction string            `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
}

func (c *SessionConfig) Validate() error {
	if c.APIKey == "" && c.AccessToken == "" {
		return shared.ErrNoAPIKey
	}
	if c.Model == "" {
		return shared.ErrNoModel
	}
	if _, err := c.uri(); err != nil {
		return err
	}
	return nil
}

// uri resolves the dial target with the credential attached as a query
// parameter.
func (c *SessionConfig) uri() (string, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}
	q := u.Query()
	if c.AccessToken != "" {
		q.Set("access_token", c.AccessToken)
	} else {
		q.Set("key", c.APIKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// LoadSessionConfig reads a SessionConfig from a YAML file. The credential is
// normally left out of the file and injected from the environment by the
// caller.
func LoadSessionConfig(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := new(SessionConfig)
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.UseJSONUnmarshaler()); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// MarshalConfigYAML renders a config for operator-facing output, with the
// credentials elided.
func MarshalConfigYAML(cfg *SessionConfig) ([]byte, error) {
	if cfg == nil {
		return nil, shared.ErrNoConfig
	}
	clone := *cfg
	clone.APIKey = ""
	clone.AccessToken = ""
	return yaml.MarshalWithOptions(&clone, yaml.UseJSONMarshaler())
}
