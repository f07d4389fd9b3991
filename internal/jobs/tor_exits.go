package jobs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gl-gateway/gl-gateway/internal/metrics"
	"github.com/gl-gateway/gl-gateway/internal/policy"
)

// TorExitRefresh 下载 Tor 出口节点列表并整体替换 ExitSet。
type TorExitRefresh struct {
	Client  *http.Client
	URL     string
	Exits   *policy.ExitSet
	Metrics *metrics.Metrics
}

func (j *TorExitRefresh) Name() string { return "tor_exit_refresh" }

func (j *TorExitRefresh) Run(ctx context.Context) error {
	body, err := fetch(ctx, j.Client, j.URL)
	if err != nil {
		return err
	}
	addrs := ParseExitList(body)
	// 空列表更可能是上游故障，保留旧集合。
	if len(addrs) == 0 {
		return errors.New("tor exit list is empty")
	}
	n := j.Exits.Replace(addrs)
	j.Metrics.SetTorExitNodes(n)
	return nil
}

// ParseExitList 同时支持纯 IP 列表（torbulkexitlist）与 exit-addresses 格式。
func ParseExitList(data []byte) []string {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		candidate := fields[0]
		if fields[0] == "ExitAddress" && len(fields) > 1 {
			candidate = fields[1]
		}
		if net.ParseIP(candidate) != nil {
			out = append(out, candidate)
		}
	}
	return out
}
