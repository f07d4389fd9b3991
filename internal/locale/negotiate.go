// Package locale 负责为每个请求协商出唯一的响应语言。
package locale

import (
	"sort"
	"strconv"
	"strings"
)

// Input 汇总语言协商所需的请求与租户信息。
type Input struct {
	// Explicit 是请求显式指定的语言（gl-language 头），HasExplicit 区分空值与缺失。
	Explicit    string
	HasExplicit bool
	// AcceptLanguage 是原始 Accept-Language 头。
	AcceptLanguage string
	// Multilang 为 true 时不固定语言，结果为空字符串。
	Multilang bool
	Enabled   []string
	Default   string
}

type candidate struct {
	tag    string
	weight float64
}

// ParseAcceptLanguage 按权重降序返回 Accept-Language 中的语言标签，同权重保持原顺序。
// 缺省权重为 1.0，q 值无法解析时记为 0.0。
func ParseAcceptLanguage(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var candidates []candidate
	for _, entry := range strings.Split(header, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ";")
		tag := strings.TrimSpace(parts[0])
		if tag == "" {
			continue
		}
		weight := 1.0
		if len(parts) > 1 {
			param := strings.TrimSpace(parts[1])
			if strings.HasPrefix(param, "q=") {
				parsed, err := strconv.ParseFloat(param[2:], 64)
				if err != nil {
					parsed = 0.0
				}
				weight = parsed
			}
		}
		candidates = append(candidates, candidate{tag: tag, weight: weight})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].weight > candidates[j].weight
	})

	tags := make([]string, len(candidates))
	for i, c := range candidates {
		tags[i] = c.tag
	}
	return tags
}

// Negotiate 返回请求语言。结果总是启用集合中的成员或租户默认语言；Multilang 时返回空串。
func Negotiate(in Input) string {
	if in.Multilang {
		return ""
	}

	language := ""
	if in.HasExplicit {
		language = in.Explicit
	} else {
		for _, tag := range ParseAcceptLanguage(in.AcceptLanguage) {
			if contains(in.Enabled, tag) {
				language = tag
				break
			}
		}
	}

	if language == "" || !contains(in.Enabled, language) {
		language = in.Default
	}
	return language
}

func contains(set []string, value string) bool {
	for _, item := range set {
		if item == value {
			return true
		}
	}
	return false
}
