package jobs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"
)

// VersionCheck 周期性读取 Debian Packages 索引，记录最新发布版本。
type VersionCheck struct {
	Client  *http.Client
	URL     string
	Package string
	Current string
	Logger  *logrus.Logger

	latest atomic.Pointer[string]
}

func (v *VersionCheck) Name() string { return "version_check" }

// Latest 返回最近一次检查得到的版本，未检查时为空串。
func (v *VersionCheck) Latest() string {
	if p := v.latest.Load(); p != nil {
		return *p
	}
	return ""
}

// UpdateAvailable reports whether the latest known release is newer than Current.
func (v *VersionCheck) UpdateAvailable() bool {
	latest := canonicalVersion(v.Latest())
	current := canonicalVersion(v.Current)
	if latest == "" || current == "" {
		return false
	}
	return semver.Compare(latest, current) > 0
}

func (v *VersionCheck) Run(ctx context.Context) error {
	body, err := fetch(ctx, v.Client, v.URL)
	if err != nil {
		return err
	}
	latest, ok := HighestVersion(ParseParagraphs(body), v.Package)
	if !ok {
		return errors.New("no valid package versions in index")
	}
	v.latest.Store(&latest)

	if v.UpdateAvailable() && v.Logger != nil {
		v.Logger.WithFields(logrus.Fields{
			"action":  "version_check",
			"current": v.Current,
			"latest":  latest,
		}).Info("update_available")
	}
	return nil
}

// ParseParagraphs 解析 deb822 格式：空行分隔段落，以空白开头的行是上一字段的续行。
func ParseParagraphs(data []byte) []map[string]string {
	var (
		out     []map[string]string
		current map[string]string
		lastKey string
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				out = append(out, current)
			}
			current, lastKey = nil, ""
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if current != nil && lastKey != "" {
				current[lastKey] += "\n" + strings.TrimSpace(line)
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if current == nil {
			current = make(map[string]string)
		}
		lastKey = strings.TrimSpace(key)
		current[lastKey] = strings.TrimSpace(value)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

// HighestVersion 返回段落中最高的 Version；pkg 非空时只考虑该包。
func HighestVersion(paragraphs []map[string]string, pkg string) (string, bool) {
	best, bestCanonical := "", ""
	for _, p := range paragraphs {
		if pkg != "" && p["Package"] != pkg {
			continue
		}
		raw := p["Version"]
		canonical := canonicalVersion(raw)
		if canonical == "" {
			continue
		}
		if bestCanonical == "" || semver.Compare(canonical, bestCanonical) > 0 {
			best, bestCanonical = raw, canonical
		}
	}
	return best, best != ""
}

// canonicalVersion 把 Debian 版本号（可含 epoch 与修订号）转换为 semver 形式，无法转换时返回空串。
func canonicalVersion(raw string) string {
	v := strings.TrimSpace(raw)
	if i := strings.Index(v, ":"); i >= 0 {
		v = v[i+1:]
	}
	if i := strings.IndexAny(v, "-+~"); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
