package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const indexFile = "index.html"

// NewStore 以 basePath 为根目录构建磁盘存储，目录不存在时自动创建。
func NewStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}
	root, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}
	return &fileStore{root: root, writers: make(map[Locator]*writerSlot)}, nil
}

// fileStore 对同一 Locator 的写入与删除串行化，读取不加锁（依赖 rename 的原子性）。
type fileStore struct {
	root string

	mu      sync.Mutex
	writers map[Locator]*writerSlot
}

type writerSlot struct {
	mu      sync.Mutex
	waiters int
}

func (s *fileStore) Get(ctx context.Context, locator Locator) (*ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filePath, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}

	return &ReadResult{
		Entry:  entryFor(locator, filePath, info.Size(), info.ModTime()),
		Reader: f,
	}, nil
}

func (s *fileStore) Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error) {
	filePath, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}
	release := s.acquire(locator)
	defer release()

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, err
	}

	written, err := io.Copy(tmp, contextReader{ctx: ctx, r: body})
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o644)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), filePath)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	modTime := opts.ModTime
	if modTime.IsZero() {
		modTime = time.Now().UTC()
	}
	if err := os.Chtimes(filePath, modTime, modTime); err != nil {
		return nil, err
	}
	entry := entryFor(locator, filePath, written, modTime)
	return &entry, nil
}

func (s *fileStore) Remove(_ context.Context, locator Locator) error {
	filePath, err := s.resolve(locator)
	if err != nil {
		return err
	}
	release := s.acquire(locator)
	defer release()

	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// acquire 获取 Locator 级写锁，最后一个持有者释放时回收槽位。
func (s *fileStore) acquire(locator Locator) func() {
	s.mu.Lock()
	slot, ok := s.writers[locator]
	if !ok {
		slot = &writerSlot{}
		s.writers[locator] = slot
	}
	slot.waiters++
	s.mu.Unlock()

	slot.mu.Lock()
	return func() {
		slot.mu.Unlock()
		s.mu.Lock()
		if slot.waiters--; slot.waiters == 0 {
			delete(s.writers, locator)
		}
		s.mu.Unlock()
	}
}

// resolve 把 Locator 映射到根目录内的绝对路径；空路径映射为 index.html。
func (s *fileStore) resolve(locator Locator) (string, error) {
	if locator.Scope == ".." || strings.ContainsAny(locator.Scope, `/\`) {
		return "", ErrInvalidPath
	}

	rel := strings.TrimPrefix(path.Clean("/"+locator.Path), "/")
	if rel == "" {
		rel = indexFile
	}

	base := filepath.Join(s.root, locator.Scope)
	full := filepath.Join(base, filepath.FromSlash(rel))
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

func entryFor(locator Locator, filePath string, size int64, modTime time.Time) Entry {
	return Entry{Locator: locator, FilePath: filePath, SizeBytes: size, ModTime: modTime}
}

// contextReader 在每次读取前检查 ctx，使长时间写入可以被取消。
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
