// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Service related
	ErrServiceInternal = newGraphError("service internal error", 5, false)

	// Stream related
	// 流结构被破坏：前缀/后缀标记缺失，或出现未知的指针标记、类型名标记。
	ErrFraming = newGraphError("stream framing broken", 100, false)
	// 流中出现的类型名在注册表中不存在。
	ErrTypeNotFound = newGraphError("type not found", 101, false)
	// 回溯引用的编号从未在本次会话中登记过。
	ErrBrokenReference = newGraphError("broken back-reference", 102, false)
	ErrTypeMismatch    = newGraphError("type mismatch", 103, false)

	// Registry related
	ErrTypeDuplicated = newGraphError("type already registered", 200, false)
	ErrTypeInvalid    = newGraphError("invalid type", 201, false)

	// Entity related
	ErrEntityInvalid   = newGraphError("invalid entity", 300, false)
	ErrCopyUnsupported = newGraphError("copy unsupported", 301, false)

	// Snapshot related
	ErrSnapshotVersionMismatch = newGraphError("snapshot version mismatch", 400, false)
	ErrSnapshotCorrupted       = newGraphError("snapshot corrupted", 401, false)
	ErrCompressorUnknown       = newGraphError("unknown compressor", 402, false)
	ErrEncryptionDisabled      = newGraphError("encryption disabled", 403, false)

	// IO related
	ErrIoKeyNotFound = newGraphError("key not found", 1000, false)
	ErrIoFailed      = newGraphError("IO failed", 1001, false)
	ErrIoUnexpectEOF = newGraphError("unexpected EOF", 1002, true)

	// Parameter related
	ErrParameterInvalid  = newGraphError("invalid parameter", 1100, false)
	ErrParameterMissing  = newGraphError("missing parameter", 1101, false)
	ErrParameterTooLarge = newGraphError("parameter too large", 1102, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to graphError
	errUnexpected = newGraphError("unexpected error", (1<<16)-1, false)

	// General
	ErrOperationNotSupported = newGraphError("unsupported operation", 3000, false)
)

type errorOption func(*graphError)

func WithDetail(detail string) errorOption {
	return func(err *graphError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *graphError) {
		err.errType = etype
	}
}

type graphError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newGraphError(msg string, code int32, retriable bool, options ...errorOption) graphError {
	err := graphError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e graphError) code() int32 {
	return e.errCode
}

func (e graphError) Error() string {
	return e.msg
}

func (e graphError) Detail() string {
	return e.detail
}

func (e graphError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(graphError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
