package assets

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"
)

// Store 负责静态资源与租户上传文件的读写。磁盘布局：
//
//	<root>/<path>                 # Scope 为空：客户端静态文件
//	<root>/<scope>/<path>         # 租户上传，scope 形如 tenant-2
type Store interface {
	// Get 返回可流式读取的条目，不存在时返回 ErrNotFound。
	Get(ctx context.Context, locator Locator) (*ReadResult, error)

	// Put 原子写入条目，失败时清理临时文件。
	Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error)

	// Remove 删除条目，不存在时不报错。
	Remove(ctx context.Context, locator Locator) error
}

// PutOptions 控制写入过程中的可选属性。
type PutOptions struct {
	ModTime time.Time
}

// Locator 唯一定位一个条目，Path 为 URL 路径风格。
type Locator struct {
	Scope string
	Path  string
}

// TenantScope 返回租户上传目录名。
func TenantScope(tenantID int) string {
	return "tenant-" + strconv.Itoa(tenantID)
}

// Entry 描述磁盘上的条目。
type Entry struct {
	Locator   Locator   `json:"locator"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

var (
	// ErrNotFound 表示条目不存在。
	ErrNotFound = errors.New("asset not found")
	// ErrInvalidPath 表示路径越出了存储根目录。
	ErrInvalidPath = errors.New("invalid asset path")
)
