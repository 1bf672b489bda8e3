package node

import (
	"encoding/json"
	"strings"
)

type repairFrame struct {
	open byte

	// 以下仅对对象有效
	expectKey bool
	afterKey  bool
}

// RepairTruncatedJSON 补全在末尾被截断的 JSON 文本。
// 仅当文本在尾部中断（字符串、数组或对象未闭合）时才会修复；
// 结构在中途出错、括号不匹配或闭合后仍有多余内容时返回 false。
// 修复只做一次，结果必须是合法 JSON。
func RepairTruncatedJSON(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' && s[0] != '[' {
		return "", false
	}

	var stack []repairFrame
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
				if top := topFrame(stack); top != nil && top.open == '{' && top.expectKey {
					top.expectKey = false
					top.afterKey = true
				}
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, repairFrame{open: '{', expectKey: true})
		case '[':
			stack = append(stack, repairFrame{open: '['})
		case '}', ']':
			top := topFrame(stack)
			if top == nil || closerFor(top.open) != c {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				// 结构已完整闭合，解析失败另有原因
				return "", false
			}
		case ',':
			if top := topFrame(stack); top != nil && top.open == '{' {
				top.expectKey = true
			}
		case ':':
			if top := topFrame(stack); top != nil && top.open == '{' {
				top.afterKey = false
			}
		}
	}

	if len(stack) == 0 {
		return "", false
	}

	out := s
	if inString {
		out = closeString(out, escaped)
	}
	out = strings.TrimRight(out, " \t\r\n")

	if !inString {
		var ok bool
		if out, ok = completeScalar(out); !ok {
			return "", false
		}
	}

	top := topFrame(stack)
	switch {
	case top.open == '{' && (top.afterKey || inString && top.expectKey):
		out += ":null"
	case strings.HasSuffix(out, ","):
		out = strings.TrimRight(strings.TrimSuffix(out, ","), " \t\r\n")
	case strings.HasSuffix(out, ":"):
		out += "null"
	}

	var b strings.Builder
	b.Grow(len(out) + len(stack))
	b.WriteString(out)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(closerFor(stack[i].open))
	}

	repaired := b.String()
	if !json.Valid([]byte(repaired)) {
		return "", false
	}
	return repaired, true
}

func topFrame(stack []repairFrame) *repairFrame {
	if len(stack) == 0 {
		return nil
	}
	return &stack[len(stack)-1]
}

func closerFor(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

// closeString 闭合未结束的字符串，丢弃残缺的转义序列
func closeString(s string, escaped bool) string {
	if escaped {
		s = s[:len(s)-1]
	}
	// 残缺的 \uXXXX
	if i := strings.LastIndex(s, `\u`); i >= 0 && len(s)-i < 6 && !isEscapedBackslash(s, i) {
		s = s[:i]
	}
	return s + `"`
}

// isEscapedBackslash 判断 s[i] 处的反斜杠本身是否被转义
func isEscapedBackslash(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

var literals = []string{"true", "false", "null"}

// completeScalar 补全末尾残缺的字面量或数字
func completeScalar(s string) (string, bool) {
	end := len(s)
	start := end
	for start > 0 && isLetter(s[start-1]) {
		start--
	}
	if start < end {
		word := s[start:end]
		// 数字指数部分，如 1e
		if (word == "e" || word == "E") && start > 0 && isDigit(s[start-1]) {
			return strings.TrimRight(s[:start], " \t\r\n"), true
		}
		for _, lit := range literals {
			if strings.HasPrefix(lit, word) {
				return s[:start] + lit, true
			}
		}
		return "", false
	}

	// 数字以 . - + 结尾时截掉残缺部分
	if strings.ContainsAny(s[len(s)-1:], ".-+") {
		s = strings.TrimRight(strings.TrimRight(s, ".-+eE"), " \t\r\n")
	}
	return s, true
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
