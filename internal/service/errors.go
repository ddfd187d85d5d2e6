package service

import "errors"

// ErrNotFound 操作对象不存在（pin / topic）
var ErrNotFound = errors.New("not found")

// ValidationError 载荷校验失败，Rule 标记具体违反的规则（仅用于日志观测，不进响应体）
type ValidationError struct {
	Rule string
}

func (e *ValidationError) Error() string { return "invalid pin: " + e.Rule }
