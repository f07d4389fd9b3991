package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gl-gateway/gl-gateway/internal/handler"
)

const contentTypeJSON = "application/json"

// rendered 是处理器返回值序列化后的结果。
type rendered struct {
	status      int
	contentType string
	location    string
	body        []byte
}

// render 按返回值类型序列化：nil 无响应体；对象与数组压缩为 JSON；字符串原样输出；
// 其他标量按文本输出。
func render(value any, status int) (rendered, error) {
	out := rendered{status: status}
	switch v := value.(type) {
	case nil:
		return out, nil
	case handler.Redirect:
		out.status = http.StatusFound
		out.location = v.Location
		return out, nil
	case *handler.Redirect:
		out.status = http.StatusFound
		out.location = v.Location
		return out, nil
	case handler.Payload:
		out.contentType = v.ContentType
		out.body = v.Body
		return out, nil
	case *handler.Payload:
		out.contentType = v.ContentType
		out.body = v.Body
		return out, nil
	case string:
		out.body = []byte(v)
		return out, nil
	case []byte:
		out.body = v
		return out, nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		out.body = []byte(fmt.Sprint(v))
		return out, nil
	case json.RawMessage:
		out.contentType = contentTypeJSON
		out.body = v
		return out, nil
	default:
		body, err := marshalCompact(v)
		if err != nil {
			return rendered{}, fmt.Errorf("serialize %T: %w", value, err)
		}
		out.contentType = contentTypeJSON
		out.body = body
		return out, nil
	}
}

// marshalCompact 输出紧凑 JSON，且不转义 HTML 字符。
func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
