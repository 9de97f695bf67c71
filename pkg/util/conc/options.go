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

package conc

import (
	"time"

	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/objgraph-go/pkg/log"
)

type poolOption struct {
	preAlloc       bool
	nonBlocking    bool
	expiryDuration time.Duration
	disablePurge   bool
	// concealPanic 为 true 时任务 panic 只记录日志，错误经 Future 返回。
	concealPanic bool
	panicHandler func(any)
	preHandler   func()
}

func (opt *poolOption) antsOptions() []ants.Option {
	result := []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithNonblocking(opt.nonBlocking),
		ants.WithDisablePurge(opt.disablePurge),
		ants.WithPanicHandler(opt.handlePanic),
	}
	if opt.expiryDuration > 0 {
		result = append(result, ants.WithExpiryDuration(opt.expiryDuration))
	}
	return result
}

// handlePanic 在 ants 的 worker 中执行，此时 Future 已经带上了 ErrServiceInternal。
func (opt *poolOption) handlePanic(v any) {
	if opt.panicHandler != nil {
		opt.panicHandler(v)
		return
	}
	log.Error("conc pool task panicked", zap.Any("panic", v), zap.Bool("concealed", opt.concealPanic))
	if !opt.concealPanic {
		panic(v)
	}
}

// PoolOption 配置 Pool。
type PoolOption func(opt *poolOption)

func defaultPoolOption() *poolOption {
	return &poolOption{}
}

// WithPreAlloc 在创建时一次性分配全部 worker 的队列。
func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

// WithNonBlocking 使 Submit 在池满时立即失败而不是等待空闲 worker。
func WithNonBlocking(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.nonBlocking = v
	}
}

func WithDisablePurge(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.disablePurge = v
	}
}

// WithExpiryDuration 设置空闲 worker 的回收间隔，0 使用 ants 的默认值。
func WithExpiryDuration(d time.Duration) PoolOption {
	return func(opt *poolOption) {
		opt.expiryDuration = d
	}
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.concealPanic = v
	}
}

// WithPanicHandler 替换默认的 panic 处理，设置后 concealPanic 不再生效。
func WithPanicHandler(fn func(any)) PoolOption {
	return func(opt *poolOption) {
		opt.panicHandler = fn
	}
}

// WithPreHandler 设置每个任务执行前调用的函数。
func WithPreHandler(fn func()) PoolOption {
	return func(opt *poolOption) {
		opt.preHandler = fn
	}
}
