// Package statuses 管理每个租户的报告状态与子状态，以及它们的展示顺序。
package statuses

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
)

// 系统状态始终存在，且固定出现在列表首尾。
const (
	StatusNew    = "new"
	StatusOpened = "opened"
	StatusClosed = "closed"
)

// Status 是报告状态。
type Status struct {
	ID          string
	Order       int
	Label       map[string]string
	Substatuses []Substatus
}

// Substatus 是某个状态下的细分状态。
type Substatus struct {
	ID       string
	StatusID string
	Order    int
	Label    map[string]string
}

// Repository 是状态数据的持久化边界。
type Repository interface {
	List(ctx context.Context, tid int) ([]Status, error)
	Get(ctx context.Context, tid int, id string) (Status, error)
	Create(ctx context.Context, tid int, order int, label map[string]string) (Status, error)
	UpdateLabel(ctx context.Context, tid int, id, lang, label string) error
	Delete(ctx context.Context, tid int, id string) error
	Reorder(ctx context.Context, tid int, ids []string) error

	CreateSub(ctx context.Context, tid int, statusID string, order int, label map[string]string) (Substatus, error)
	UpdateSubLabel(ctx context.Context, tid int, statusID, id, lang, label string) error
	DeleteSub(ctx context.Context, tid int, statusID, id string) error
	ReorderSub(ctx context.Context, tid int, statusID string, ids []string) error
}

type record struct {
	id    string
	order int
	label map[string]string
	subs  map[string]*subRecord
}

type subRecord struct {
	id    string
	order int
	label map[string]string
}

// MemoryStore 是进程内实现，首次访问租户时写入系统状态。
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[int]map[string]*record
}

// NewMemoryStore 创建空仓库。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[int]map[string]*record)}
}

// statusesLocked 返回租户状态表，必须持有写锁。
func (m *MemoryStore) statusesLocked(tid int) map[string]*record {
	if existing, ok := m.tenants[tid]; ok {
		return existing
	}
	seeded := map[string]*record{
		StatusNew:    {id: StatusNew, label: map[string]string{"en": "New"}, subs: map[string]*subRecord{}},
		StatusOpened: {id: StatusOpened, label: map[string]string{"en": "Opened"}, subs: map[string]*subRecord{}},
		StatusClosed: {id: StatusClosed, label: map[string]string{"en": "Closed"}, subs: map[string]*subRecord{}},
	}
	m.tenants[tid] = seeded
	return seeded
}

func (m *MemoryStore) List(ctx context.Context, tid int) ([]Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.statusesLocked(tid)
	user := make([]*record, 0, len(all))
	for id, rec := range all {
		if isSystem(id) {
			continue
		}
		user = append(user, rec)
	}
	sort.SliceStable(user, func(i, j int) bool {
		if user[i].order != user[j].order {
			return user[i].order < user[j].order
		}
		return user[i].id < user[j].id
	})

	out := make([]Status, 0, len(all))
	out = append(out, all[StatusNew].export(), all[StatusOpened].export())
	for _, rec := range user {
		out = append(out, rec.export())
	}
	out = append(out, all[StatusClosed].export())
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, tid int, id string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.statusesLocked(tid)[id]
	if !ok {
		return Status{}, apierr.NotFound()
	}
	return rec.export(), nil
}

func (m *MemoryStore) Create(ctx context.Context, tid int, order int, label map[string]string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &record{id: uuid.NewString(), order: order, label: copyLabel(label), subs: map[string]*subRecord{}}
	m.statusesLocked(tid)[rec.id] = rec
	return rec.export(), nil
}

func (m *MemoryStore) UpdateLabel(ctx context.Context, tid int, id, lang, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.statusesLocked(tid)[id]
	if !ok {
		return apierr.NotFound()
	}
	rec.label[lang] = label
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, tid int, id string) error {
	if isSystem(id) {
		return apierr.Forbidden()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statusesLocked(tid), id)
	return nil
}

// Reorder 按 ids 顺序设置 order；ids 必须与现有集合在成员与数量上完全一致。
func (m *MemoryStore) Reorder(ctx context.Context, tid int, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.statusesLocked(tid)
	existing := make([]string, 0, len(all))
	for id := range all {
		existing = append(existing, id)
	}
	if !sameSet(ids, existing) {
		return apierr.Validation("list does not contain all context ids")
	}
	for i, id := range ids {
		all[id].order = i
	}
	return nil
}

func (m *MemoryStore) CreateSub(ctx context.Context, tid int, statusID string, order int, label map[string]string) (Substatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, ok := m.statusesLocked(tid)[statusID]
	if !ok {
		return Substatus{}, apierr.NotFound()
	}
	sub := &subRecord{id: uuid.NewString(), order: order, label: copyLabel(label)}
	parent.subs[sub.id] = sub
	return sub.export(statusID), nil
}

func (m *MemoryStore) UpdateSubLabel(ctx context.Context, tid int, statusID, id, lang, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, ok := m.statusesLocked(tid)[statusID]
	if !ok {
		return apierr.NotFound()
	}
	sub, ok := parent.subs[id]
	if !ok {
		return apierr.NotFound()
	}
	sub.label[lang] = label
	return nil
}

func (m *MemoryStore) DeleteSub(ctx context.Context, tid int, statusID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if parent, ok := m.statusesLocked(tid)[statusID]; ok {
		delete(parent.subs, id)
	}
	return nil
}

func (m *MemoryStore) ReorderSub(ctx context.Context, tid int, statusID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, ok := m.statusesLocked(tid)[statusID]
	if !ok {
		return apierr.NotFound()
	}
	existing := make([]string, 0, len(parent.subs))
	for id := range parent.subs {
		existing = append(existing, id)
	}
	if !sameSet(ids, existing) {
		return apierr.Validation("list does not contain all context ids")
	}
	for i, id := range ids {
		parent.subs[id].order = i
	}
	return nil
}

func (r *record) export() Status {
	subs := make([]Substatus, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s.export(r.id))
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].Order != subs[j].Order {
			return subs[i].Order < subs[j].Order
		}
		return subs[i].ID < subs[j].ID
	})
	return Status{ID: r.id, Order: r.order, Label: copyLabel(r.label), Substatuses: subs}
}

func (s *subRecord) export(statusID string) Substatus {
	return Substatus{ID: s.id, StatusID: statusID, Order: s.order, Label: copyLabel(s.label)}
}

func isSystem(id string) bool {
	return id == StatusNew || id == StatusOpened || id == StatusClosed
}

// sameSet 比较成员与数量，忽略顺序；重复 id 视为不一致。
func sameSet(ids, existing []string) bool {
	if len(ids) != len(existing) {
		return false
	}
	seen := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			return false
		}
		delete(seen, id)
	}
	return len(seen) == 0
}

func copyLabel(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
