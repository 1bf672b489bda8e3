package credential

import (
	"errors"
	"strings"
)

// ErrInvalidKey 凭证格式不可用
var ErrInvalidKey = errors.New("api key is empty or malformed")

const minKeyLength = 6

// IsUsableKey 空值、字面量 "undefined" 或长度不足 6 的凭证视为不可用
func IsUsableKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" || key == "undefined" {
		return false
	}
	return len(key) >= minKeyLength
}
