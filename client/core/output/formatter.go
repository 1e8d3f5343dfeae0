// Package output CLI 输出格式化
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

// Format 输出格式
type Format string

const (
	// FormatJSON JSON格式（默认）
	FormatJSON Format = "json"
	// FormatPretty 美化JSON格式
	FormatPretty Format = "pretty"
	// FormatTable 表格格式
	FormatTable Format = "table"
	// FormatText 纯文本格式
	FormatText Format = "text"
)

// ParseFormat 解析格式名称
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatPretty, FormatTable, FormatText:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (json|pretty|table|text)", s)
}

// Formatter 输出格式化器
type Formatter struct {
	format    Format
	writer    io.Writer // 数据输出（JSON/表格等）
	logWriter io.Writer // 日志输出（Info/Success/Error等）
	silent    bool
}

// NewFormatter 创建格式化器
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr, // 日志输出到 stderr，避免污染 JSON
	}
}

// SetLogWriter 设置日志输出目标（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 设置静默模式
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print 打印输出
func (f *Formatter) Print(data interface{}) error {
	if f.silent {
		return nil
	}
	switch f.format {
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, string(out)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printTable 结构体与 map 打印为 Key/Value 两列，切片打印为多列表格
func (f *Formatter) printTable(data interface{}) error {
	generic, err := normalize(data)
	if err != nil {
		return err
	}

	var rows pterm.TableData
	switch v := generic.(type) {
	case map[string]interface{}:
		rows = pterm.TableData{{"Key", "Value"}}
		for _, key := range sortedKeys(v) {
			rows = append(rows, []string{key, formatValue(v[key])})
		}
	case []interface{}:
		if len(v) == 0 {
			return nil
		}
		rows = sliceTable(v)
	default:
		return f.printText(data)
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, rendered); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func sliceTable(items []interface{}) pterm.TableData {
	var columns []string
	seen := make(map[string]bool)
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			for _, key := range sortedKeys(m) {
				if !seen[key] {
					seen[key] = true
					columns = append(columns, key)
				}
			}
		}
	}
	if len(columns) == 0 {
		rows := pterm.TableData{{"#", "Value"}}
		for i, item := range items {
			rows = append(rows, []string{fmt.Sprintf("%d", i), formatValue(item)})
		}
		return rows
	}

	rows := pterm.TableData{columns}
	for _, item := range items {
		m, _ := item.(map[string]interface{})
		row := make([]string, len(columns))
		for i, col := range columns {
			if val, ok := m[col]; ok {
				row[i] = formatValue(val)
			} else {
				row[i] = "-"
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// printText 每个字段一行 "key: value"；字符串等标量原样输出
func (f *Formatter) printText(data interface{}) error {
	generic, err := normalize(data)
	if err != nil {
		return err
	}
	var b strings.Builder
	switch v := generic.(type) {
	case map[string]interface{}:
		for _, key := range sortedKeys(v) {
			fmt.Fprintf(&b, "%s: %s\n", key, formatValue(v[key]))
		}
	case []interface{}:
		for i, item := range v {
			if i > 0 {
				b.WriteString("\n")
			}
			if m, ok := item.(map[string]interface{}); ok {
				for _, key := range sortedKeys(m) {
					fmt.Fprintf(&b, "%s: %s\n", key, formatValue(m[key]))
				}
				continue
			}
			fmt.Fprintf(&b, "%s\n", formatValue(item))
		}
	default:
		fmt.Fprintf(&b, "%s\n", formatValue(v))
	}
	if _, err := io.WriteString(f.writer, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// PrintSuccess 打印成功消息（输出到 stderr，避免污染 JSON）
func (f *Formatter) PrintSuccess(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintf(f.logWriter, "✅ %s\n", message)
}

// PrintError 打印错误消息
func (f *Formatter) PrintError(err error) {
	_, _ = fmt.Fprintf(f.logWriter, "❌ Error: %v\n", err)
}

// PrintWarning 打印警告消息
func (f *Formatter) PrintWarning(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintf(f.logWriter, "⚠️  %s\n", message)
}

// PrintInfo 打印信息消息
func (f *Formatter) PrintInfo(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintf(f.logWriter, "ℹ️  %s\n", message)
}

// ===== 辅助函数 =====

// normalize 经 JSON 往返把结构体转换为 map/slice，字段名与 JSON 输出一致
func normalize(data interface{}) (interface{}, error) {
	switch data.(type) {
	case string, nil:
		return data, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal json: %w", err)
	}
	return generic, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil:
		return "-"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// ErrorOutput 错误输出结构
type ErrorOutput struct {
	Error struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// NewErrorOutput 创建错误输出
func NewErrorOutput(code string, message string, details interface{}) *ErrorOutput {
	output := &ErrorOutput{}
	output.Error.Code = code
	output.Error.Message = message
	output.Error.Details = details
	return output
}
