/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package revlink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

/*
Pass results which are used as metric labels
*/
const (
	PassOK           = "ok"
	PassError        = "error"
	PassCommitFailed = "commit_failed"
)

var (
	metricPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "revlinks",
		Name:      "passes_total",
		Help:      "Total number of indexing passes by result",
	}, []string{"result"})

	metricRecords = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "revlinks",
		Name:      "records_created_total",
		Help:      "Total number of created reverse-link records",
	})

	metricDangling = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "revlinks",
		Name:      "dangling_targets_total",
		Help:      "Total number of skipped references to nodes without namespace",
	})

	metricFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "revlinks",
		Name:      "failed_groups_total",
		Help:      "Total number of reference groups which could not be materialized",
	})

	metricPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "revlinks",
		Name:      "pass_duration_seconds",
		Help:      "Duration of indexing passes",
		Buckets:   prometheus.DefBuckets,
	})
)

/*
recordReport adds the counts of a namespace report to the metrics.
*/
func recordReport(r *Report) {
	metricRecords.Add(float64(r.Records))
	metricDangling.Add(float64(r.Dangling))
	metricFailed.Add(float64(r.Failed))
}
