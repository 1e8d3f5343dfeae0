// Package configs 随二进制分发的示例配置
package configs

import _ "embed"

//go:embed newsanchor.example.json
var exampleConfig []byte

// Example 示例配置文件内容（JSON）
func Example() []byte {
	return append([]byte(nil), exampleConfig...)
}
