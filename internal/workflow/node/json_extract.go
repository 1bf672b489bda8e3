package node

import (
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个 JSON 对象。
// 对象未闭合（输出被截断）时保留从 { 到末尾的全部内容，交给修复逻辑处理。
func ExtractJSONObject(s string) string {
	raw := stripCodeFence(strings.TrimSpace(s))
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return raw
	}
	raw = raw[start:]
	if end := matchingClose(raw); end >= 0 {
		return raw[:end+1]
	}
	return strings.TrimSpace(raw)
}

// stripCodeFence 去掉 ```json ... ``` 包裹
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// matchingClose 返回与首字符 { 配对的 } 下标，未闭合时返回 -1
func matchingClose(s string) int {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
