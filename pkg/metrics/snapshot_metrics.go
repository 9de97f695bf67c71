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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	snapshotMetricSubsystem = "snapshot"

	StageRaw        = "raw"
	StageCompressed = "compressed"
	StageFramed     = "framed"
)

var (
	SnapshotBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: objgraphNamespace,
		Subsystem: snapshotMetricSubsystem,
		Name:      "bytes_total",
		Help:      "快照各处理阶段的字节数",
	}, []string{directionLabelName, stageLabelName})

	SnapshotLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: objgraphNamespace,
		Subsystem: snapshotMetricSubsystem,
		Name:      "latency_ms",
		Help:      "快照编码或解码的耗时，单位毫秒",
		Buckets:   buckets,
	}, []string{directionLabelName})

	SnapshotFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: objgraphNamespace,
		Subsystem: snapshotMetricSubsystem,
		Name:      "failures_total",
		Help:      "快照处理失败的次数，按错误码区分",
	}, []string{directionLabelName, codeLabelName})
)

func registerSnapshotMetrics(r prometheus.Registerer) {
	r.MustRegister(SnapshotBytes)
	r.MustRegister(SnapshotLatency)
	r.MustRegister(SnapshotFailures)
}
