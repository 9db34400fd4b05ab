package store_test

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mnemos.app/archive/internal/store"
)

// recordingDB captures each query's SQL and how many destinations the store
// handed to Scan, so select lists and scan targets can be compared without a
// database. pgx fails at runtime when the two drift apart.
type recordingDB struct {
	lastSQL string
	scanned int
}

func (f *recordingDB) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *recordingDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.lastSQL = sql
	return &recordingRows{db: f}, nil
}

func (f *recordingDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.lastSQL = sql
	return &recordingRows{db: f}
}

type recordingRows struct {
	db   *recordingDB
	done bool
}

func (r *recordingRows) Close()                                       {}
func (r *recordingRows) Err() error                                   { return nil }
func (r *recordingRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *recordingRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *recordingRows) Values() ([]any, error)                       { return nil, nil }
func (r *recordingRows) RawValues() [][]byte                          { return nil }
func (r *recordingRows) Conn() *pgx.Conn                              { return nil }

func (r *recordingRows) Next() bool {
	if r.done {
		return false
	}
	r.done = true
	return true
}

func (r *recordingRows) Scan(dest ...any) error {
	r.db.scanned = len(dest)
	return nil
}

// selectColumnCount counts top-level select-list entries, ignoring commas
// inside function calls.
func selectColumnCount(sql string) int {
	upper := strings.ToUpper(sql)
	start := strings.Index(upper, "SELECT") + len("SELECT")
	end := strings.Index(upper, "FROM")
	cols, depth := 1, 0
	for _, ch := range sql[start:end] {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				cols++
			}
		}
	}
	return cols
}

var _ = Describe("messageStore queries", func() {
	var (
		ctx context.Context
		db  *recordingDB
		ms  store.MessageStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = &recordingDB{}
		ms = store.NewStores(db).Messages()
	})

	expectBalanced := func() {
		Expect(db.lastSQL).NotTo(BeEmpty())
		Expect(selectColumnCount(db.lastSQL)).To(Equal(db.scanned))
	}

	It("keeps GetByID select list and scan destinations in step", func() {
		_, err := ms.GetByID(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		expectBalanced()
	})

	It("keeps GetByRef select list and scan destinations in step", func() {
		_, err := ms.GetByRef(ctx, "u1")
		Expect(err).NotTo(HaveOccurred())
		expectBalanced()
	})

	It("keeps ListByHeap select list and scan destinations in step", func() {
		_, err := ms.ListByHeap(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		expectBalanced()
	})

	It("keeps ListByEra select list and scan destinations in step", func() {
		_, err := ms.ListByEra(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		expectBalanced()
	})

	It("keeps ListBefore select list and scan destinations in step", func() {
		_, err := ms.ListBefore(ctx, time.Now(), 1, 10)
		Expect(err).NotTo(HaveOccurred())
		expectBalanced()
	})

	It("keeps ListSince select list and scan destinations in step", func() {
		_, err := ms.ListSince(ctx, time.Now(), 1, 10)
		Expect(err).NotTo(HaveOccurred())
		expectBalanced()
	})

	It("keeps ListRecent select list and scan destinations in step", func() {
		_, err := ms.ListRecent(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		expectBalanced()
	})

	It("keeps Search select list and scan destinations in step", func() {
		_, err := ms.Search(ctx, "refactor", 10)
		Expect(err).NotTo(HaveOccurred())
		expectBalanced()
	})
})
