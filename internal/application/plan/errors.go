// Package plan 负责 PSST 计划书的结构化生成与编排
package plan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind 生成失败类别
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindMalformed ErrorKind = "malformed"
	KindService   ErrorKind = "service"
)

// RecoveryAction 调用方应采取的恢复动作
type RecoveryAction string

const (
	RecoveryReselectCredential RecoveryAction = "reselect_credential"
	RecoveryReduceInput        RecoveryAction = "reduce_input"
	RecoveryRetryLater         RecoveryAction = "retry_later"
)

// AuthError 凭证缺失、被拒绝或权限不足。不会自动重试。
type AuthError struct {
	err error
}

func (e *AuthError) Error() string {
	return "credential rejected: " + e.err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.err
}

// NewAuthError 包装为凭证错误
func NewAuthError(err error) error {
	return &AuthError{err: err}
}

// ErrCredentialMissing 调用时没有可用凭证
var ErrCredentialMissing = errors.New("no api credential available")

// MalformedOutputError 模型输出无法解析或未通过校验，通常由输出被截断导致
type MalformedOutputError struct {
	Issues []string
	err    error
}

func (e *MalformedOutputError) Error() string {
	if len(e.Issues) == 0 {
		return "malformed output: " + e.err.Error()
	}
	return fmt.Sprintf("malformed output: %s", strings.Join(e.Issues, "; "))
}

func (e *MalformedOutputError) Unwrap() error {
	return e.err
}

// NewMalformedOutputError 包装为输出格式错误
func NewMalformedOutputError(err error, issues ...string) error {
	if err == nil {
		err = errors.New("document validation failed")
	}
	return &MalformedOutputError{Issues: issues, err: err}
}

// ServiceError 其他生成服务错误（网络、配额、内容策略、超时）
type ServiceError struct {
	err error
}

func (e *ServiceError) Error() string {
	return "generation service failed: " + e.err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// NewServiceError 包装为服务错误
func NewServiceError(err error) error {
	return &ServiceError{err: err}
}

// IsAuth 是否为凭证错误
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsMalformed 是否为输出格式错误
func IsMalformed(err error) bool {
	var target *MalformedOutputError
	return errors.As(err, &target)
}

// IsService 是否为服务错误
func IsService(err error) bool {
	var target *ServiceError
	return errors.As(err, &target)
}

// Kind 返回错误类别，非生成错误返回空串
func Kind(err error) ErrorKind {
	switch {
	case IsAuth(err):
		return KindAuth
	case IsMalformed(err):
		return KindMalformed
	case IsService(err):
		return KindService
	default:
		return ""
	}
}

// Recovery 返回错误对应的恢复动作
func Recovery(err error) RecoveryAction {
	switch Kind(err) {
	case KindAuth:
		return RecoveryReselectCredential
	case KindMalformed:
		return RecoveryReduceInput
	case KindService:
		return RecoveryRetryLater
	default:
		return ""
	}
}
