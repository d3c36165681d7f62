package docsync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// fakeRepo 内存版本地文档表，Transact 失败时回滚
type fakeRepo struct {
	mu      sync.Mutex
	rows    map[string]*doc.LocalDoc
	nextID  int64
	txCount int
	updated int // UpdateBatchByID 累计更新的行数
	saveErr error
	listErr error
}

func newFakeRepo(rows ...*doc.LocalDoc) *fakeRepo {
	r := &fakeRepo{rows: make(map[string]*doc.LocalDoc)}
	for _, d := range rows {
		r.nextID++
		cp := *d
		cp.ID = r.nextID
		r.rows[cp.DocID] = &cp
	}
	return r
}

func (r *fakeRepo) ListAll(context.Context) ([]*doc.LocalDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*doc.LocalDoc, 0, len(r.rows))
	for _, d := range r.rows {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) SaveBatch(_ context.Context, docs []*doc.LocalDoc) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, d := range docs {
		if _, ok := r.rows[d.DocID]; ok {
			return fmt.Errorf("duplicate doc_id %s", d.DocID)
		}
		r.nextID++
		d.ID = r.nextID
		cp := *d
		r.rows[d.DocID] = &cp
	}
	return nil
}

func (r *fakeRepo) UpdateBatchByID(_ context.Context, docs []*doc.LocalDoc) error {
	for _, d := range docs {
		found := false
		for key, row := range r.rows {
			if row.ID == d.ID {
				delete(r.rows, key)
				cp := *d
				r.rows[d.DocID] = &cp
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no row with id %d", d.ID)
		}
		r.updated++
	}
	return nil
}

func (r *fakeRepo) RemoveByDocIDs(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(r.rows, id)
	}
	return nil
}

func (r *fakeRepo) Transact(ctx context.Context, fn func(repo doc.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txCount++

	snapshot := make(map[string]*doc.LocalDoc, len(r.rows))
	for k, v := range r.rows {
		cp := *v
		snapshot[k] = &cp
	}
	nextID := r.nextID

	if err := fn(r); err != nil {
		r.rows = snapshot
		r.nextID = nextID
		return err
	}
	return nil
}

func (r *fakeRepo) updatedRows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updated
}

// get 按 DocID 取一行
func (r *fakeRepo) get(docID string) *doc.LocalDoc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[docID]
}

func (r *fakeRepo) docIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// fakeIndex 内存向量索引
type fakeIndex struct {
	mu          sync.Mutex
	entries     map[string]doc.VectorDocument
	seq         int
	writes      int
	deleteCalls [][]string
	failWriteAt int // 第 n 次写入失败，0 表示不失败
	deleteErr   error
}

func newFakeIndex(ids ...string) *fakeIndex {
	idx := &fakeIndex{entries: make(map[string]doc.VectorDocument)}
	for _, id := range ids {
		idx.entries[id] = doc.VectorDocument{}
	}
	return idx
}

func (f *fakeIndex) Write(_ context.Context, d doc.VectorDocument) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.failWriteAt > 0 && f.writes == f.failWriteAt {
		return "", fmt.Errorf("%w: embedding quota exceeded", doc.ErrUpstream)
	}
	f.seq++
	id := fmt.Sprintf("vec-%d", f.seq)
	f.entries[id] = d
	return id, nil
}

func (f *fakeIndex) Delete(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, append([]string(nil), ids...))
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, id := range ids {
		delete(f.entries, id)
	}
	return nil
}

func (f *fakeIndex) Search(_ context.Context, query string, limit int) ([]doc.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hits := make([]doc.SearchHit, 0)
	for id, e := range f.entries {
		if strings.Contains(e.Text, query) {
			hits = append(hits, doc.SearchHit{VectorDocID: id, DocID: e.DocID, Name: e.Name, URL: e.URL, Content: e.Text, Score: 1})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].DocID < hits[j].DocID })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeIndex) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[id]
	return ok
}

func (f *fakeIndex) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// fakeRemote 远端文档源
type fakeRemote struct {
	mu         sync.Mutex
	docs       []doc.RemoteDoc
	contents   map[string]string
	contentErr map[string]error
	listErr    error
	gate       chan struct{} // 非 nil 时 ListDocs 阻塞到 gate 关闭
	listCalls  atomic.Int32
	readCalls  atomic.Int32
}

func (f *fakeRemote) set(docs ...doc.RemoteDoc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = docs
}

func (f *fakeRemote) ListDocs(ctx context.Context) ([]doc.RemoteDoc, error) {
	f.listCalls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]doc.RemoteDoc(nil), f.docs...), nil
}

func (f *fakeRemote) ReadContent(_ context.Context, id string) (string, error) {
	f.readCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.contentErr[id]; err != nil {
		return "", err
	}
	if c, ok := f.contents[id]; ok {
		return c, nil
	}
	return "content of " + id, nil
}

// MockNotifier 模拟 Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishSyncReport(report *doc.SyncReport) {
	m.Called(report)
}
