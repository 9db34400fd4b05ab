package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageKind discriminates the closed set of message variants. Variants
// differ only in payload shape; all common attributes live on Message.
type MessageKind string

const (
	MessageText       MessageKind = "text"
	MessageThought    MessageKind = "thought"
	MessageToolUse    MessageKind = "tool_use"
	MessageToolResult MessageKind = "tool_result"
)

func (k MessageKind) Valid() bool {
	switch k {
	case MessageText, MessageThought, MessageToolUse, MessageToolResult:
		return true
	}
	return false
}

// Message is one archived conversation message. Seq is unique and contiguous
// within the owning heap, starting at 1. Fingerprint is a content-addressed
// hash of the normalized raw entry, unique across the whole store; it is what
// makes re-ingestion a no-op.
type Message struct {
	ID     int64       `json:"id,string"`
	HeapID int64       `json:"heap_id,string"`
	Seq    int         `json:"seq"`
	Kind   MessageKind `json:"kind"`
	Sender string      `json:"sender"`
	// ParentID threads messages into chains within and across heaps.
	ParentID *int64 `json:"parent_id,string,omitempty"`
	// Ref is the entry identifier carried by the log source, kept so later
	// entries can resolve their parent references against the store.
	Ref       string    `json:"ref,omitempty"`
	SessionID *string   `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	// Anchor is an external monotonic counter (e.g., a blockchain height)
	// used for cross-session ordering independent of clock skew.
	Anchor      *int64          `json:"anchor,omitempty"`
	Fingerprint string          `json:"fingerprint"`
	Payload     json.RawMessage `json:"payload"`
	// ContentText is the searchable plain-text rendering of the payload.
	ContentText string           `json:"content_text"`
	Metadata    *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MessageMetadata carries the client-side context an entry was produced in.
type MessageMetadata struct {
	ModelBackend  string `json:"model_backend,omitempty"`
	StopReason    string `json:"stop_reason,omitempty"`
	InputTokens   int    `json:"input_tokens,omitempty"`
	OutputTokens  int    `json:"output_tokens,omitempty"`
	CacheCreation int    `json:"cache_creation_input_tokens,omitempty"`
	CacheRead     int    `json:"cache_read_input_tokens,omitempty"`
	CWD           string `json:"cwd,omitempty"`
	GitBranch     string `json:"git_branch,omitempty"`
	ClientVersion string `json:"client_version,omitempty"`
	IsSidechain   bool   `json:"is_sidechain,omitempty"`
}

// TextPayload is free conversational text. IsContinuation marks the
// system-injected summary that opens a post-compaction heap.
type TextPayload struct {
	Text           string `json:"text"`
	IsContinuation bool   `json:"is_continuation,omitempty"`
}

// ThoughtPayload is the internal monologue of an AI entity. Thinking blocks
// are sometimes signed by the vendor of the LLM client.
type ThoughtPayload struct {
	Text      string `json:"text"`
	Signature string `json:"signature,omitempty"`
}

// ToolUsePayload records a tool call with its parameters.
type ToolUsePayload struct {
	ToolName string          `json:"tool_name"`
	ToolID   string          `json:"tool_id"`
	Input    json.RawMessage `json:"input,omitempty"`
}

// ToolResultPayload records tool output, linked back via ToolUseID.
type ToolResultPayload struct {
	ToolUseID string `json:"tool_use_id"`
	Output    string `json:"output"`
	IsError   bool   `json:"is_error,omitempty"`
}

func (m *Message) Text() (TextPayload, error) {
	var p TextPayload
	return p, m.decodePayload(MessageText, &p)
}

func (m *Message) Thought() (ThoughtPayload, error) {
	var p ThoughtPayload
	return p, m.decodePayload(MessageThought, &p)
}

func (m *Message) ToolUse() (ToolUsePayload, error) {
	var p ToolUsePayload
	return p, m.decodePayload(MessageToolUse, &p)
}

func (m *Message) ToolResult() (ToolResultPayload, error) {
	var p ToolResultPayload
	return p, m.decodePayload(MessageToolResult, &p)
}

func (m *Message) decodePayload(kind MessageKind, dst any) error {
	if m.Kind != kind {
		return fmt.Errorf("message %d is %s, not %s", m.ID, m.Kind, kind)
	}
	return json.Unmarshal(m.Payload, dst)
}

// EncodePayload marshals a typed payload for storage.
func EncodePayload(p any) (json.RawMessage, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return data, nil
}
