package watcher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mnemos.app/archive/internal/model"
)

// continuationPrefix marks the system-injected summary text that opens a
// conversation resumed after compaction.
const continuationPrefix = "This session is being continued from a previous conversation"

// EntryKind classifies a parsed log entry.
type EntryKind string

const (
	// EntryMessages carries one or more candidate messages.
	EntryMessages EntryKind = "messages"
	// EntryCompaction is an explicit compaction command (a summary record
	// pointing at the leaf it collapsed).
	EntryCompaction EntryKind = "compaction"
)

// Senders maps the three sender roles appearing in session logs to
// thinking-entity names.
type Senders struct {
	Human  string
	Agent  string
	System string
}

// Candidate is one message extracted from a log entry, before heap and
// sequence assignment.
type Candidate struct {
	Kind        model.MessageKind
	Sender      string
	Payload     any
	ContentText string
	Fingerprint string
	// Ref identifies this candidate for parent threading; ParentRef points
	// at the candidate or entry it chains from.
	Ref       string
	ParentRef string
}

// ParsedEntry is the watcher-facing view of one raw log line.
type ParsedEntry struct {
	Kind       EntryKind
	Candidates []Candidate
	Timestamp  time.Time
	SessionID  *string
	Anchor     *int64
	Metadata   *model.MessageMetadata
	// IsBoundary marks a continuation entry: it must open a new
	// post-compacting heap before its candidates are appended.
	IsBoundary bool

	// Compaction fields (EntryCompaction only).
	Summary string
	LeafRef string
}

// rawEntry is the wire shape of one session-log line. The format is
// externally owned; unknown fields are ignored.
type rawEntry struct {
	Type             string          `json:"type"`
	UUID             string          `json:"uuid"`
	ParentUUID       string          `json:"parentUuid"`
	Timestamp        string          `json:"timestamp"`
	SessionID        string          `json:"sessionId"`
	CWD              string          `json:"cwd"`
	GitBranch        string          `json:"gitBranch"`
	Version          string          `json:"version"`
	IsSidechain      bool            `json:"isSidechain"`
	IsCompactSummary bool            `json:"isCompactSummary"`
	Summary          string          `json:"summary"`
	LeafUUID         string          `json:"leafUuid"`
	Anchor           *int64          `json:"eth_blockheight"`
	Message          json.RawMessage `json:"message"`
}

type rawMessage struct {
	Role       string          `json:"role"`
	Model      string          `json:"model"`
	StopReason string          `json:"stop_reason"`
	Content    json.RawMessage `json:"content"`
	Usage      struct {
		InputTokens   int `json:"input_tokens"`
		OutputTokens  int `json:"output_tokens"`
		CacheCreation int `json:"cache_creation_input_tokens"`
		CacheRead     int `json:"cache_read_input_tokens"`
	} `json:"usage"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	Signature string          `json:"signature"`
	Name      string          `json:"name"`
	ID        string          `json:"id"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// ParseLine parses one raw log line into candidate messages. A user or
// assistant entry explodes into up to several candidates (thought, tool
// calls, tool results, text) chained by parent references, mirroring the
// block structure of the underlying entry.
func ParseLine(line []byte, senders Senders) (*ParsedEntry, error) {
	var raw rawEntry
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}

	switch raw.Type {
	case "summary":
		if raw.LeafUUID == "" {
			return nil, fmt.Errorf("summary entry without leafUuid")
		}
		return &ParsedEntry{
			Kind:    EntryCompaction,
			Summary: raw.Summary,
			LeafRef: raw.LeafUUID,
		}, nil
	case "user", "assistant":
		return parseConversationEntry(line, raw, senders)
	default:
		return nil, fmt.Errorf("unhandled entry type %q", raw.Type)
	}
}

func parseConversationEntry(line []byte, raw rawEntry, senders Senders) (*ParsedEntry, error) {
	if raw.UUID == "" {
		return nil, fmt.Errorf("%s entry without uuid", raw.Type)
	}
	if raw.Timestamp == "" {
		return nil, fmt.Errorf("%s entry without timestamp", raw.Type)
	}
	ts, err := time.Parse(time.RFC3339, raw.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", raw.Timestamp, err)
	}

	var msg rawMessage
	if len(raw.Message) > 0 {
		if err := json.Unmarshal(raw.Message, &msg); err != nil {
			return nil, fmt.Errorf("decoding message body: %w", err)
		}
	}

	blocks, err := decodeContent(msg.Content)
	if err != nil {
		return nil, err
	}

	sender := senders.Agent
	if raw.Type == "user" {
		sender = senders.Human
	}

	entry := &ParsedEntry{
		Kind:      EntryMessages,
		Timestamp: ts,
		Anchor:    raw.Anchor,
	}
	if raw.SessionID != "" {
		entry.SessionID = &raw.SessionID
	}
	entry.Metadata = buildMetadata(raw, msg)

	// Candidates chain thought → tool calls/results → text, each parenting
	// the next, with the first inheriting the entry's own parent reference.
	parentRef := raw.ParentUUID
	ref := raw.UUID
	n := 0

	addCandidate := func(kind model.MessageKind, candSender string, payload any, text, candRef string) {
		entry.Candidates = append(entry.Candidates, Candidate{
			Kind:        kind,
			Sender:      candSender,
			Payload:     payload,
			ContentText: text,
			Fingerprint: fingerprint(line, kind, n),
			Ref:         candRef,
			ParentRef:   parentRef,
		})
		parentRef = candRef
		n++
	}

	for _, b := range blocks {
		if b.Type != "thinking" || b.Thinking == "" {
			continue
		}
		addCandidate(model.MessageThought, senders.Agent,
			model.ThoughtPayload{Text: b.Thinking, Signature: b.Signature},
			b.Thinking, ref)
		// The entry uuid names the thought; derived refs name the rest.
		ref = derivedRef(raw.UUID, "response")
	}

	for _, b := range blocks {
		switch b.Type {
		case "tool_use":
			addCandidate(model.MessageToolUse, senders.Agent,
				model.ToolUsePayload{ToolName: b.Name, ToolID: b.ID, Input: b.Input},
				b.Name, derivedRef(ref, fmt.Sprintf("tool_use_%d", n)))
		case "tool_result":
			addCandidate(model.MessageToolResult, senders.System,
				model.ToolResultPayload{ToolUseID: b.ToolUseID, Output: blockText(b.Content), IsError: b.IsError},
				blockText(b.Content), derivedRef(ref, fmt.Sprintf("tool_result_%d", n)))
		}
	}

	if text := joinText(blocks); text != "" {
		isContinuation := raw.IsCompactSummary || strings.HasPrefix(text, continuationPrefix)
		entry.IsBoundary = isContinuation
		addCandidate(model.MessageText, sender,
			model.TextPayload{Text: text, IsContinuation: isContinuation},
			text, ref)
	}

	if len(entry.Candidates) == 0 {
		return nil, fmt.Errorf("%s entry carries no message content", raw.Type)
	}
	return entry, nil
}

// decodeContent accepts both content forms: a plain string and an array of
// typed blocks.
func decodeContent(content json.RawMessage) ([]contentBlock, error) {
	if len(content) == 0 {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		if text == "" {
			return nil, nil
		}
		return []contentBlock{{Type: "text", Text: text}}, nil
	}

	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return nil, fmt.Errorf("decoding content blocks: %w", err)
	}
	return blocks, nil
}

// blockText renders a tool-result content value, which is either a string or
// a nested block array, as plain text.
func blockText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return text
	}
	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return string(content)
	}
	return joinText(blocks)
}

func joinText(blocks []contentBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func buildMetadata(raw rawEntry, msg rawMessage) *model.MessageMetadata {
	meta := model.MessageMetadata{
		ModelBackend:  msg.Model,
		StopReason:    msg.StopReason,
		InputTokens:   msg.Usage.InputTokens,
		OutputTokens:  msg.Usage.OutputTokens,
		CacheCreation: msg.Usage.CacheCreation,
		CacheRead:     msg.Usage.CacheRead,
		CWD:           raw.CWD,
		GitBranch:     raw.GitBranch,
		ClientVersion: raw.Version,
		IsSidechain:   raw.IsSidechain,
	}
	if meta == (model.MessageMetadata{}) {
		return nil
	}
	return &meta
}

// fingerprint hashes the normalized raw line, salted with the candidate's
// kind and position so exploded sub-messages of one entry stay distinct.
func fingerprint(line []byte, kind model.MessageKind, idx int) string {
	h := sha256.New()
	h.Write(bytes.TrimSpace(line))
	fmt.Fprintf(h, "#%s:%d", kind, idx)
	return hex.EncodeToString(h.Sum(nil))
}

// derivedRef names an exploded sub-message deterministically from its
// entry's identifier.
func derivedRef(base, label string) string {
	sum := sha256.Sum256([]byte(base + "/" + label))
	return hex.EncodeToString(sum[:16])
}
