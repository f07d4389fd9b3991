package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrStoreUnavailable 表示未注入存储实例。
var ErrStoreUnavailable = errors.New("asset store unavailable")

// ErrTooLarge 表示上传内容超过大小限制。
var ErrTooLarge = errors.New("asset exceeds size limit")

// LimitedWriter 在写入前限制条目大小，供上传处理器使用。
type LimitedWriter struct {
	store    Store
	maxBytes int64
}

// NewLimitedWriter 构造写入器；maxBytes <= 0 表示不限制。
func NewLimitedWriter(store Store, maxBytes int64) LimitedWriter {
	return LimitedWriter{store: store, maxBytes: maxBytes}
}

// Put 写入正文；超过限制时不会留下任何文件。
func (w LimitedWriter) Put(ctx context.Context, locator Locator, body io.Reader, size int64) (*Entry, error) {
	if w.store == nil {
		return nil, ErrStoreUnavailable
	}
	if w.maxBytes > 0 && size > w.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, w.maxBytes)
	}
	if w.maxBytes > 0 {
		body = io.LimitReader(body, w.maxBytes)
	}
	return w.store.Put(ctx, locator, body, PutOptions{})
}

// Remove 删除条目。
func (w LimitedWriter) Remove(ctx context.Context, locator Locator) error {
	if w.store == nil {
		return ErrStoreUnavailable
	}
	return w.store.Remove(ctx, locator)
}
