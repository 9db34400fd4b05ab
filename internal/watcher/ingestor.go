package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mnemos.app/archive/common/id"
	"mnemos.app/archive/common/logger"
	"mnemos.app/archive/core/config"
	"mnemos.app/archive/internal/model"
	"mnemos.app/archive/internal/queue"
	"mnemos.app/archive/internal/search"
	"mnemos.app/archive/internal/service"
	"mnemos.app/archive/internal/store"
)

// Ingestor converts raw log lines into durable messages with correct heap
// placement. Each poll of a source is one all-or-nothing batch: messages,
// heaps, compacting actions and the cursor advance commit together.
type Ingestor struct {
	txRunner service.TxRunner
	producer queue.Producer  // nil when stats publishing is disabled
	searcher search.Searcher // nil when external search is disabled
	senders  Senders
	eraName  string
	logger   *slog.Logger
}

func NewIngestor(
	txRunner service.TxRunner,
	producer queue.Producer,
	searcher search.Searcher,
	cfg config.WatcherConfig,
	log *slog.Logger,
) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{
		txRunner: txRunner,
		producer: producer,
		searcher: searcher,
		senders: Senders{
			Human:  cfg.HumanEntity,
			Agent:  cfg.AgentEntity,
			System: cfg.SystemEntity,
		},
		eraName: cfg.EraName,
		logger:  log,
	}
}

// batch carries the mutable state of one poll: the open heap, in-flight
// parent references and per-heap sequence counters.
type batch struct {
	stores   service.StoreProvider
	source   Source
	era      *model.Era
	cursor   *model.IngestionCursor
	refs     map[string]refTarget
	seq      map[int64]int
	creation []*model.Message
}

type refTarget struct {
	msgID  int64
	heapID int64
}

// PollAndIngest processes everything appended to the source since its
// cursor. Per-entry failures are recovered inside the batch; only source
// read and persistence errors abort it (cursor unchanged, retried whole
// next poll).
func (i *Ingestor) PollAndIngest(ctx context.Context, src Source) (model.BatchStats, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{SourceID: &src.ID, Component: "ingestor"})

	stats := model.BatchStats{SourceID: src.ID}
	var created []*model.Message

	err := i.txRunner.WithTx(ctx, func(stores service.StoreProvider) error {
		cursor, err := stores.Cursors().Get(ctx, src.ID)
		if errors.Is(err, store.ErrNotFound) {
			cursor = &model.IngestionCursor{SourceID: src.ID}
		} else if err != nil {
			return fmt.Errorf("loading cursor: %w", err)
		}

		lines, err := readNewLines(src.Path, cursor.Position)
		if err != nil {
			return fmt.Errorf("reading source %s: %w", src.ID, err)
		}
		stats.Position = cursor.Position
		if len(lines) == 0 {
			return nil
		}

		era, err := stores.Eras().Ensure(ctx, i.eraName)
		if err != nil {
			return fmt.Errorf("ensuring era: %w", err)
		}
		if err := i.ensureEntities(ctx, stores); err != nil {
			return err
		}

		b := &batch{
			stores: stores,
			source: src,
			era:    era,
			cursor: cursor,
			refs:   make(map[string]refTarget),
			seq:    make(map[int64]int),
		}

		for _, ln := range lines {
			stats.Seen++
			if err := i.ingestLine(ctx, b, ln, &stats); err != nil {
				return err
			}
			cursor.Position = ln.endPos
		}

		if !stats.Consistent() {
			return fmt.Errorf("batch accounting violated for %s: seen=%d created=%d duplicates=%d unparsed=%d",
				src.ID, stats.Seen, stats.Created, stats.Duplicates, stats.Unparsed)
		}

		stats.Position = cursor.Position
		created = b.creation
		return stores.Cursors().Upsert(ctx, cursor)
	})
	if err != nil {
		return model.BatchStats{SourceID: src.ID}, err
	}

	i.afterCommit(ctx, stats, created)
	return stats, nil
}

func (i *Ingestor) ensureEntities(ctx context.Context, stores service.StoreProvider) error {
	for _, e := range []struct {
		name    string
		isHuman bool
	}{
		{i.senders.Human, true},
		{i.senders.Agent, false},
		{i.senders.System, false},
	} {
		if _, err := stores.Entities().Ensure(ctx, e.name, e.isHuman); err != nil {
			return fmt.Errorf("ensuring entity %q: %w", e.name, err)
		}
	}
	return nil
}

// ingestLine handles one raw line. Parse failures and duplicates never
// propagate an error; those are recovered per-entry.
func (i *Ingestor) ingestLine(ctx context.Context, b *batch, ln rawLine, stats *model.BatchStats) error {
	entry, err := ParseLine(ln.data, i.senders)
	if err != nil {
		stats.Unparsed++
		i.logger.WarnContext(ctx, "unparsed entry", "position", ln.endPos, "error", err)
		return b.stores.Unparsed().Create(ctx, &model.UnparsedEntry{
			SourceID:   b.source.ID,
			Position:   ln.endPos,
			Raw:        string(ln.data),
			ParseError: err.Error(),
		})
	}

	if entry.Kind == EntryCompaction {
		applied, err := i.applyCompactionCommand(ctx, b, entry)
		if err != nil {
			return err
		}
		if applied {
			stats.Created++
		} else {
			stats.Duplicates++
			i.logger.DebugContext(ctx, "duplicate compaction command skipped", "position", ln.endPos)
		}
		return nil
	}

	createdHere, dupHere, err := i.ingestCandidates(ctx, b, entry)
	if err != nil {
		return err
	}
	if createdHere > 0 {
		stats.Created++
	} else {
		stats.Duplicates++
		i.logger.DebugContext(ctx, "duplicate entry skipped", "position", ln.endPos, "candidates", dupHere)
	}
	return nil
}

func (i *Ingestor) ingestCandidates(ctx context.Context, b *batch, entry *ParsedEntry) (created, duplicates int, err error) {
	var heapID int64
	var pending *model.CompactingAction
	placed := false

	for _, cand := range entry.Candidates {
		existing, err := b.stores.Messages().GetByFingerprint(ctx, cand.Fingerprint)
		if err == nil {
			duplicates++
			b.refs[cand.Ref] = refTarget{msgID: existing.ID, heapID: existing.HeapID}
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, duplicates, fmt.Errorf("checking fingerprint: %w", err)
		}

		// Heap resolution is decided once per entry, at its first new
		// candidate; the rest of the entry lands in the same heap.
		if !placed {
			heapID, pending, err = i.resolveHeap(ctx, b, entry)
			if err != nil {
				return created, duplicates, err
			}
			placed = true
		}

		msg, err := i.buildMessage(ctx, b, entry, cand, heapID)
		if err != nil {
			return created, duplicates, err
		}
		if err := b.stores.Messages().Create(ctx, msg); err != nil {
			return created, duplicates, fmt.Errorf("persisting message: %w", err)
		}
		created++
		b.seq[heapID] = msg.Seq
		b.refs[cand.Ref] = refTarget{msgID: msg.ID, heapID: heapID}
		b.creation = append(b.creation, msg)

		if pending != nil {
			pending.BoundaryMessageID = &msg.ID
			if pending.Summary == nil && msg.Kind == model.MessageText {
				pending.Summary = &cand.ContentText
			}
			if err := b.stores.CompactingActions().Create(ctx, pending); err != nil {
				return created, duplicates, fmt.Errorf("persisting compacting action: %w", err)
			}
			pending = nil
		}
	}

	// A boundary entry whose candidates were all duplicates creates
	// nothing: the heap split was already recorded when first seen.
	return created, duplicates, nil
}

// resolveHeap applies the placement policy for an entry's messages:
// continuation markers open a post-compacting heap, a source without an
// open heap gets a fresh one, an unresolvable parent reference opens a
// split-point heap, and everything else appends to the open heap.
func (i *Ingestor) resolveHeap(ctx context.Context, b *batch, entry *ParsedEntry) (int64, *model.CompactingAction, error) {
	if entry.IsBoundary {
		return i.openBoundaryHeap(ctx, b, logger.Ptr("continuation"))
	}

	if b.cursor.OpenHeapID == nil {
		heapID, err := b.openHeap(ctx, model.HeapFresh, nil)
		return heapID, nil, err
	}

	if ref := entryParentRef(entry); ref != "" && !i.parentResolvable(ctx, b, ref) {
		i.logger.WarnContext(ctx, "parent reference unresolved, opening split-point heap",
			"parent_ref", ref, "open_heap_id", *b.cursor.OpenHeapID)
		parent := *b.cursor.OpenHeapID
		heapID, err := b.openHeap(ctx, model.HeapSplitPoint, &parent)
		return heapID, nil, err
	}

	return *b.cursor.OpenHeapID, nil, nil
}

// applyCompactionCommand handles an explicit summary record: it closes the
// open heap and opens a post-compacting one, even though the record itself
// stores no message. Returns false when the command was already recorded
// (the open heap is an empty post-compacting heap started with the same
// summary), so a cursor reset cannot stack empty heaps.
func (i *Ingestor) applyCompactionCommand(ctx context.Context, b *batch, entry *ParsedEntry) (bool, error) {
	recorded, err := i.compactionAlreadyRecorded(ctx, b, entry)
	if err != nil || recorded {
		return false, err
	}

	_, action, err := i.openBoundaryHeap(ctx, b, logger.Ptr("summary"))
	if err != nil {
		return false, err
	}
	if entry.Summary != "" {
		action.Summary = &entry.Summary
	}
	if target, ok := i.lookupRef(ctx, b, entry.LeafRef); ok {
		action.EndingMessageID = &target.msgID
	}
	if err := b.stores.CompactingActions().Create(ctx, action); err != nil {
		return false, err
	}
	return true, nil
}

func (i *Ingestor) compactionAlreadyRecorded(ctx context.Context, b *batch, entry *ParsedEntry) (bool, error) {
	if b.cursor.OpenHeapID == nil {
		return false, nil
	}

	heap, err := b.stores.Heaps().GetByID(ctx, *b.cursor.OpenHeapID)
	if err != nil {
		return false, fmt.Errorf("loading open heap %d: %w", *b.cursor.OpenHeapID, err)
	}
	if heap.Kind != model.HeapPostCompacting {
		return false, nil
	}

	max, err := b.stores.Messages().MaxSeq(ctx, heap.ID)
	if err != nil || max > 0 {
		return false, err
	}

	action, err := b.stores.CompactingActions().GetByStartedHeap(ctx, heap.ID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var summary string
	if action.Summary != nil {
		summary = *action.Summary
	}
	return summary == entry.Summary, nil
}

// openBoundaryHeap opens a post-compacting heap and prepares the action
// linking it to the heap that just ended. For message entries the action is
// persisted by the caller once the boundary message exists.
func (i *Ingestor) openBoundaryHeap(ctx context.Context, b *batch, trig *string) (int64, *model.CompactingAction, error) {
	ended := b.cursor.OpenHeapID

	heapID, err := b.openHeap(ctx, model.HeapPostCompacting, nil)
	if err != nil {
		return 0, nil, err
	}

	action := &model.CompactingAction{
		EndedHeapID:   ended,
		StartedHeapID: heapID,
		Trigger:       trig,
	}
	if ended != nil {
		last, err := b.stores.Messages().LastInHeap(ctx, *ended)
		if err == nil {
			action.EndingMessageID = &last.ID
		} else if !errors.Is(err, store.ErrNotFound) {
			return 0, nil, fmt.Errorf("loading last message of heap %d: %w", *ended, err)
		}
	}
	return heapID, action, nil
}

func (b *batch) openHeap(ctx context.Context, kind model.HeapKind, parentHeapID *int64) (int64, error) {
	heap := &model.ContextHeap{
		EraID:        b.era.ID,
		Kind:         kind,
		SourceID:     b.source.ID,
		ParentHeapID: parentHeapID,
	}
	if err := b.stores.Heaps().Create(ctx, heap); err != nil {
		return 0, fmt.Errorf("opening %s heap: %w", kind, err)
	}
	b.cursor.OpenHeapID = &heap.ID
	b.seq[heap.ID] = 0
	return heap.ID, nil
}

func (i *Ingestor) buildMessage(ctx context.Context, b *batch, entry *ParsedEntry, cand Candidate, heapID int64) (*model.Message, error) {
	payload, err := model.EncodePayload(cand.Payload)
	if err != nil {
		return nil, err
	}

	seq, err := b.nextSeq(ctx, heapID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:          id.New(),
		HeapID:      heapID,
		Seq:         seq,
		Kind:        cand.Kind,
		Sender:      cand.Sender,
		Ref:         cand.Ref,
		SessionID:   entry.SessionID,
		Timestamp:   entry.Timestamp,
		Anchor:      entry.Anchor,
		Fingerprint: cand.Fingerprint,
		Payload:     payload,
		ContentText: cand.ContentText,
		Metadata:    entry.Metadata,
	}
	if target, ok := b.refs[cand.ParentRef]; ok {
		msg.ParentID = &target.msgID
	}
	return msg, nil
}

// nextSeq hands out the next contiguous sequence number for the heap,
// querying the store once per heap per batch.
func (b *batch) nextSeq(ctx context.Context, heapID int64) (int, error) {
	if _, ok := b.seq[heapID]; !ok {
		max, err := b.stores.Messages().MaxSeq(ctx, heapID)
		if err != nil {
			return 0, fmt.Errorf("loading max seq of heap %d: %w", heapID, err)
		}
		b.seq[heapID] = max
	}
	return b.seq[heapID] + 1, nil
}

func entryParentRef(entry *ParsedEntry) string {
	if len(entry.Candidates) == 0 {
		return ""
	}
	return entry.Candidates[0].ParentRef
}

func (i *Ingestor) parentResolvable(ctx context.Context, b *batch, ref string) bool {
	_, ok := i.lookupRef(ctx, b, ref)
	return ok
}

func (i *Ingestor) lookupRef(ctx context.Context, b *batch, ref string) (refTarget, bool) {
	if ref == "" {
		return refTarget{}, false
	}
	if target, ok := b.refs[ref]; ok {
		return target, true
	}
	msg, err := b.stores.Messages().GetByRef(ctx, ref)
	if err != nil {
		return refTarget{}, false
	}
	return refTarget{msgID: msg.ID, heapID: msg.HeapID}, true
}

// afterCommit publishes batch statistics and feeds the search index. Both
// are best-effort: the batch is already durable.
func (i *Ingestor) afterCommit(ctx context.Context, stats model.BatchStats, created []*model.Message) {
	if stats.Seen > 0 {
		i.logger.InfoContext(ctx, "batch ingested",
			"source_id", stats.SourceID, "seen", stats.Seen, "created", stats.Created,
			"duplicates", stats.Duplicates, "unparsed", stats.Unparsed, "position", stats.Position)
	}

	if i.producer != nil && stats.Seen > 0 {
		if err := i.producer.PublishBatch(ctx, stats); err != nil {
			i.logger.WarnContext(ctx, "failed to publish batch stats", "error", err)
		}
	}

	if i.searcher != nil {
		for _, msg := range created {
			if err := i.searcher.IndexMessage(ctx, msg); err != nil {
				i.logger.WarnContext(ctx, "failed to index message", "message_id", msg.ID, "error", err)
			}
		}
	}
}
