package tenant

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// ErrNotFound 表示快照中不存在指定租户。
var ErrNotFound = errors.New("tenant not found")

// Snapshot 是某一版本的全部租户配置，构造后不可变。
type Snapshot struct {
	version   uint64
	tenants   map[int]*Tenant
	hostnames map[string]int
	ordered   []*Tenant
}

// NewSnapshot 根据租户列表构建快照，并建立 hostname/onionname 到租户的映射。
func NewSnapshot(version uint64, tenants []Tenant) (*Snapshot, error) {
	s := &Snapshot{
		version:   version,
		tenants:   make(map[int]*Tenant, len(tenants)),
		hostnames: make(map[string]int, len(tenants)),
	}

	for i := range tenants {
		t := tenants[i].Clone()
		if t.ID <= 0 {
			return nil, fmt.Errorf("invalid tenant id %d", t.ID)
		}
		if _, exists := s.tenants[t.ID]; exists {
			return nil, fmt.Errorf("duplicate tenant id %d", t.ID)
		}
		s.tenants[t.ID] = &t
		s.ordered = append(s.ordered, &t)

		names := append([]string{t.Hostname}, t.Onionnames...)
		for _, name := range names {
			host := NormalizeHost(name)
			if host == "" {
				continue
			}
			if owner, exists := s.hostnames[host]; exists && owner != t.ID {
				return nil, fmt.Errorf("duplicate hostname mapping detected for %s", host)
			}
			s.hostnames[host] = t.ID
		}
	}

	if _, ok := s.tenants[PrimaryID]; !ok {
		return nil, fmt.Errorf("primary tenant %d is required", PrimaryID)
	}

	sort.Slice(s.ordered, func(i, j int) bool {
		return s.ordered[i].ID < s.ordered[j].ID
	})
	return s, nil
}

// Version 返回快照版本号，每次发布递增。
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Get 按标识查找租户。
func (s *Snapshot) Get(id int) (*Tenant, bool) {
	t, ok := s.tenants[id]
	return t, ok
}

// Has reports whether the snapshot contains the tenant.
func (s *Snapshot) Has(id int) bool {
	_, ok := s.tenants[id]
	return ok
}

// Primary 返回主租户（构造时已保证存在）。
func (s *Snapshot) Primary() *Tenant {
	return s.tenants[PrimaryID]
}

// LookupHost 根据 Host 或 Host:port 查找租户标识。
func (s *Snapshot) LookupHost(host string) (int, bool) {
	normalized := NormalizeHost(host)
	if normalized == "" {
		return 0, false
	}
	id, ok := s.hostnames[normalized]
	return id, ok
}

// List 返回按标识排序的租户副本，供诊断和管理接口输出。
func (s *Snapshot) List() []Tenant {
	result := make([]Tenant, len(s.ordered))
	for i, t := range s.ordered {
		result[i] = t.Clone()
	}
	return result
}

// Cache 持有当前快照；读取无锁，写入串行化后整体替换。
type Cache struct {
	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
}

// NewCache 以初始快照创建缓存。
func NewCache(initial *Snapshot) (*Cache, error) {
	if initial == nil {
		return nil, errors.New("initial snapshot is required")
	}
	c := &Cache{}
	c.current.Store(initial)
	return c, nil
}

// Load 返回当前快照，请求在整个生命周期内只应读取一次。
func (c *Cache) Load() *Snapshot {
	return c.current.Load()
}

// Publish 用新的租户集合替换当前快照，版本号在上一版基础上加一。
func (c *Cache) Publish(tenants []Tenant) (*Snapshot, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	next, err := NewSnapshot(c.current.Load().Version()+1, tenants)
	if err != nil {
		return nil, err
	}
	c.current.Store(next)
	return next, nil
}

// Update 在当前快照的副本上修改单个租户并发布。
func (c *Cache) Update(id int, mutate func(*Tenant) error) (*Snapshot, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	prev := c.current.Load()
	tenants := prev.List()
	found := false
	for i := range tenants {
		if tenants[i].ID != id {
			continue
		}
		found = true
		if err := mutate(&tenants[i]); err != nil {
			return nil, err
		}
		tenants[i].ID = id
	}
	if !found {
		return nil, ErrNotFound
	}

	next, err := NewSnapshot(prev.Version()+1, tenants)
	if err != nil {
		return nil, err
	}
	c.current.Store(next)
	return next, nil
}

// Add 分配下一个可用标识并发布包含新租户的快照。
func (c *Cache) Add(t Tenant) (*Snapshot, int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	prev := c.current.Load()
	tenants := prev.List()
	nextID := PrimaryID
	for _, existing := range tenants {
		if existing.ID >= nextID {
			nextID = existing.ID + 1
		}
	}
	t.ID = nextID
	tenants = append(tenants, t)

	next, err := NewSnapshot(prev.Version()+1, tenants)
	if err != nil {
		return nil, 0, err
	}
	c.current.Store(next)
	return next, nextID, nil
}

// Remove 删除非主租户并发布新快照。
func (c *Cache) Remove(id int) (*Snapshot, error) {
	if id == PrimaryID {
		return nil, errors.New("primary tenant cannot be removed")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	prev := c.current.Load()
	if !prev.Has(id) {
		return nil, ErrNotFound
	}
	tenants := prev.List()
	kept := tenants[:0]
	for _, t := range tenants {
		if t.ID != id {
			kept = append(kept, t)
		}
	}

	next, err := NewSnapshot(prev.Version()+1, kept)
	if err != nil {
		return nil, err
	}
	c.current.Store(next)
	return next, nil
}
