package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// configFixture 指向 config 包的测试配置，CLI 测试与配置包共用同一批 TOML。
func configFixture(t *testing.T, name string) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("无法获取工作目录: %v", err)
	}
	path := filepath.Join(wd, "internal", "config", "testdata", name)
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("找不到测试配置目录: %v", err)
	}
	return path
}

// useBufferWriters 在测试期间把 CLI 输出重定向到内存缓冲区。
func useBufferWriters(t *testing.T) {
	t.Helper()

	prevOut, prevErr := stdOut, stdErr
	stdOut, stdErr = &bytes.Buffer{}, &bytes.Buffer{}
	t.Cleanup(func() {
		stdOut, stdErr = prevOut, prevErr
	})
}

func stdErrBuffer() *bytes.Buffer {
	buf, _ := stdErr.(*bytes.Buffer)
	return buf
}
