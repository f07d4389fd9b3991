package handler

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// 错误参数使用 JSON 字段名，与请求体一致。
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Decode 解析 JSON 请求体并按 validate 标签校验，失败时返回 InputValidationError。
func Decode(req *Request, dst any) error {
	if req == nil || len(req.Body) == 0 {
		return apierr.Validation("Request body is empty")
	}
	if err := json.Unmarshal(req.Body, dst); err != nil {
		return apierr.Validation("Malformed JSON payload")
	}
	if err := payloadValidator().Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			args := make([]any, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				args = append(args, fe.Field())
			}
			return apierr.Validation("", args...)
		}
		return apierr.Validation("")
	}
	return nil
}
