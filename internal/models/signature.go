package models

import (
	"sort"
	"strconv"
	"strings"
)

// Selection 用户提交的规格选择：属性ID -> 选中的取值 key 集合。
// 单选属性只含一个 key，多选属性可含多个。
type Selection map[uint][]string

const (
	signatureTokenSep = ":"
	signatureJoinSep  = ";"
)

// CombinationSignature 规范化组合签名。
// 由 (feature_id, value_key) 对构造，顺序无关、重复不敏感，
// 字符串形式可持久化并可在任意时刻由同一选择重建。
type CombinationSignature struct {
	tokens    []string
	canonical string
}

// BuildSignature 由选择构造签名：token 为 "feature_id:value_key"，
// 去重后按字典序排序，用 ";" 连接。
func BuildSignature(selection Selection) CombinationSignature {
	seen := make(map[string]struct{}, len(selection))
	tokens := make([]string, 0, len(selection))
	for featureID, keys := range selection {
		for _, key := range keys {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			token := strconv.FormatUint(uint64(featureID), 10) + signatureTokenSep + key
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	sort.Strings(tokens)
	return CombinationSignature{
		tokens:    tokens,
		canonical: strings.Join(tokens, signatureJoinSep),
	}
}

// ParseSignature 由持久化字符串重建签名，同样做去重与排序，
// 因此历史数据中乱序写入的签名也能归一到规范形式。
func ParseSignature(raw string) CombinationSignature {
	parts := strings.Split(raw, signatureJoinSep)
	seen := make(map[string]struct{}, len(parts))
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		tokens = append(tokens, part)
	}
	sort.Strings(tokens)
	return CombinationSignature{
		tokens:    tokens,
		canonical: strings.Join(tokens, signatureJoinSep),
	}
}

// String 返回规范化字符串形式（持久化与查询键）
func (s CombinationSignature) String() string {
	return s.canonical
}

// Tokens 返回规范化 token 列表
func (s CombinationSignature) Tokens() []string {
	result := make([]string, len(s.tokens))
	copy(result, s.tokens)
	return result
}

// IsEmpty 判断签名是否为空
func (s CombinationSignature) IsEmpty() bool {
	return len(s.tokens) == 0
}

// Equal 集合相等比较（规范化后逐 token 相同）
func (s CombinationSignature) Equal(other CombinationSignature) bool {
	return s.canonical == other.canonical
}
