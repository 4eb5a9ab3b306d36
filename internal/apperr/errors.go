// Package apperr 定义了三个阶段共用的错误分类。
package apperr

import (
	"errors"
	"net/http"
)

// 领域错误。调用方使用 fmt.Errorf("%w") 附加上下文，使用 errors.Is 判断类别。
var (
	ErrUsage             = errors.New("invalid command usage")
	ErrInputNotFound     = errors.New("input not found")
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrModelIncompatible = errors.New("model artifact incompatible")
	ErrEmptyQuery        = errors.New("empty query")
)

// 进程退出码。
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitUsage             = 2
	ExitInputNotFound     = 3
	ExitSchemaMismatch    = 4
	ExitModelIncompatible = 5
)

// ExitCode 将错误映射为命令行退出码。
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrInputNotFound):
		return ExitInputNotFound
	case errors.Is(err, ErrSchemaMismatch):
		return ExitSchemaMismatch
	case errors.Is(err, ErrModelIncompatible):
		return ExitModelIncompatible
	default:
		return ExitFailure
	}
}

// HTTPStatus 将错误映射为 HTTP 状态码。
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrUsage):
		return http.StatusBadRequest
	case errors.Is(err, ErrInputNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSchemaMismatch), errors.Is(err, ErrModelIncompatible):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
