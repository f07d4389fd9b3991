package tenant

import (
	"regexp"
	"strconv"
)

var (
	// 主租户可以切换到任意已存在的租户。
	switchAnyPattern = regexp.MustCompile(`^/t/([0-9]+)(/.*)$`)
	// 非主租户只能切回主租户。
	switchPrimaryPattern = regexp.MustCompile(`^/t/(1)(/.*)$`)
)

// Resolution 是租户解析的结果。
type Resolution struct {
	TenantID int
	Path     string
	// Switched 表示路径中的 /t/<id> 前缀被接受并改写了租户与路径。
	Switched bool
}

// Resolve 根据 Host 与路径解析租户。ok 为 false 时调用方必须拒绝请求。
//
// 主租户未完成向导、Host 为 localhost 或 IP 字面量时强制使用主租户；否则按
// hostname 表查找。/t/<id>/... 前缀的规则是非对称的：主租户可切换到任意已存在租户，
// 其他租户只能切回主租户。目标租户不存在时忽略前缀。
func Resolve(s *Snapshot, host, path string) (Resolution, bool) {
	normalized := NormalizeHost(host)

	var (
		id int
		ok bool
	)
	if !s.Primary().WizardDone || normalized == "localhost" || IsLiteralIP(normalized) {
		id, ok = PrimaryID, true
	} else {
		id, ok = s.LookupHost(normalized)
	}
	if !ok {
		return Resolution{Path: path}, false
	}

	res := Resolution{TenantID: id, Path: path}

	pattern := switchPrimaryPattern
	if id == PrimaryID {
		pattern = switchAnyPattern
	}
	match := pattern.FindStringSubmatch(path)
	if match == nil {
		return res, true
	}

	target, err := strconv.Atoi(match[1])
	if err != nil || !s.Has(target) {
		return res, true
	}

	res.TenantID = target
	res.Path = match[2]
	res.Switched = true
	return res, true
}
