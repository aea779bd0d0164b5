package logic

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"    // 字段缺失或格式错误
	KindAuthorization ErrorKind = "authorization" // 非管理员或钱包不匹配
	KindDomain        ErrorKind = "domain"        // 违反业务约束
	KindNotFound      ErrorKind = "not_found"     // 引用对象不存在
	KindInternal      ErrorKind = "internal"      // 非预期错误
)

// Error 业务错误，消息原样返回给调用方
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf 参数校验错误
func Validationf(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

// Unauthorizedf 权限错误
func Unauthorizedf(format string, args ...interface{}) error {
	return newError(KindAuthorization, format, args...)
}

// Domainf 业务约束错误
func Domainf(format string, args ...interface{}) error {
	return newError(KindDomain, format, args...)
}

// NotFoundf 对象不存在
func NotFoundf(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args...)
}

// KindOf 获取错误分类，非业务错误归为 internal
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind 判断错误分类
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
