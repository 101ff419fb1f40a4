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
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/revlinks/graph"
	"devt.de/krotik/revlinks/graph/data"
	"devt.de/krotik/revlinks/graph/graphstorage"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

/*
importExample imports an embedded example document.
*/
func importExample(ws *graph.Workspace, name string) map[string]data.ID {
	r, err := graph.Example(name)
	errorutil.AssertOk(err)

	keys, err := graph.Import(ws, r)
	errorutil.AssertOk(err)

	return keys
}

func TestCarScenario(t *testing.T) {
	ws, ctx, _ := newTestContext()

	keys := importExample(ws, "cars")

	ix := NewIndexer(ctx)

	nss, err := ix.ResolveNamespaces([]string{"Cars"})
	if err != nil || len(nss) != 1 {
		t.Error("Unexpected result:", nss, err)
		return
	}

	res, err := ix.Run(nss, Options{})
	if err != nil {
		t.Error(err)
		return
	}

	// 2 cars with 4 distinct targets each

	if res.Records() != 8 || res.Opposites != 2 || len(res.Skipped) != 0 {
		t.Error("Unexpected result:", res)
		return
	}

	black, _, _ := ws.Node(keys["black"])

	colorRecords := shadowRecords(ctx, black.Namespace())

	if len(colorRecords) != 2 {
		t.Error("Unexpected result:", colorRecords)
		return
	}

	if r := colorRecords[0]; r.Source != keys["blackHonda"] || r.Target != keys["black"] ||
		r.SourceType != keys["Car"] || r.TargetType != keys["Color"] ||
		fmt.Sprint(r.RelationNames) != "[has_color interior_color]" {
		t.Error("Unexpected result:", r)
		return
	}

	honda, _, _ := ws.Node(keys["honda"])

	brandRecords := shadowRecords(ctx, honda.Namespace())

	if len(brandRecords) != 2 || brandRecords[0].Target != keys["honda"] ||
		fmt.Sprint(brandRecords[0].RelationNames) != "[brand]" {
		t.Error("Unexpected result:", brandRecords)
		return
	}

	// Opposite of the car holds all distinct targets

	car, _, _ := ws.Node(keys["blackHonda"])
	v, _ := car.Prop(OppositeProp)
	ce, _, _ := ws.Collection(v.(data.Reference).Target())

	if res := fmt.Sprint(ce.Elements); res != fmt.Sprintf("[->%v ->%v ->%v ->%v]",
		keys["black"], keys["honda"], keys["diesel"], keys["hondaTransmission"]) {
		t.Error("Unexpected result:", res)
		return
	}

	// Reverse links of the color

	q := NewQuery(ctx)

	records, _, _ := q.ReverseLinks(keys["black"])

	if len(records) != 2 || records[1].Source != keys["blackRenault"] {
		t.Error("Unexpected result:", records)
		return
	}

	rows, _, _ := q.Rows(keys["black"])

	if len(rows) != 4 || rows[0].Label != fmt.Sprintf("My black Honda (id=%v) -has_color-> this", keys["blackHonda"]) {
		t.Error("Unexpected result:", rows)
		return
	}

	// Everything is published

	if n, _ := ws.Manager().FetchNode(colorRecords[0].ID); n == nil {
		t.Error("Records should be committed")
		return
	}
}

func TestResolveNamespaces(t *testing.T) {
	ws, ctx, _ := newTestContext()

	importExample(ws, "cars")

	ix := NewIndexer(ctx)

	all, _ := ix.ResolveNamespaces(nil)

	// Vehicles, CarTypes, Cars, Brands, Parts, Colors and Countries

	if len(all) != 7 {
		t.Error("Unexpected result:", all)
		return
	}

	ix.Run(all, Options{})

	// Shadow namespaces and the schema namespace are never selected

	all2, _ := ix.ResolveNamespaces(nil)

	if fmt.Sprint(all) != fmt.Sprint(all2) {
		t.Error("Unexpected result:", all, all2)
		return
	}

	nss, err := ix.ResolveNamespaces([]string{"Colors", "Cars", "Colors"})
	if err != nil || len(nss) != 2 || nss[0] > nss[1] {
		t.Error("Unexpected result:", nss, err)
		return
	}

	if _, err := ix.ResolveNamespaces([]string{"Cars", "Planes"}); !errors.Is(err, ErrNotFound) {
		t.Error("Unexpected result:", err)
		return
	}

	// Internal namespaces passed directly are skipped

	res, err := ix.Run([]data.ID{ctx.Schema.Namespace()}, Options{Force: true})
	if err != nil || len(res.Skipped) != 1 || len(res.Reports) != 0 {
		t.Error("Unexpected result:", res, err)
		return
	}

	if _, err := ix.Run([]data.ID{9999}, Options{}); !errors.Is(err, ErrNotFound) {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestRerunPolicy(t *testing.T) {
	ws, ctx, logger := newTestContext()

	keys := importExample(ws, "cars")

	ix := NewIndexer(ctx)
	nss, _ := ix.ResolveNamespaces([]string{"Cars"})

	ix.Run(nss, Options{})

	black, _, _ := ws.Node(keys["black"])

	if r := shadowRecords(ctx, black.Namespace()); len(r) != 2 {
		t.Error("Unexpected result:", r)
		return
	}

	// A second pass skips the processed namespace

	res, err := ix.Run(nss, Options{})
	if err != nil || len(res.Skipped) != 1 || res.Records() != 0 {
		t.Error("Unexpected result:", res, err)
		return
	}

	if r := shadowRecords(ctx, black.Namespace()); len(r) != 2 {
		t.Error("Unexpected result:", r)
		return
	}

	if !strings.Contains(logger.String(), "Skipping already processed namespace Cars") {
		t.Error("Unexpected log:", logger.String())
		return
	}

	// A forced pass appends all records again

	res, _ = ix.Run(nss, Options{Force: true})

	if res.Records() != 8 {
		t.Error("Unexpected result:", res)
		return
	}

	if r := shadowRecords(ctx, black.Namespace()); len(r) != 4 {
		t.Error("Unexpected result:", r)
		return
	}

	// Opposites stay the same

	car, _, _ := ws.Node(keys["blackHonda"])
	v, _ := car.Prop(OppositeProp)
	ce, _, _ := ws.Collection(v.(data.Reference).Target())

	if len(ce.Elements) != 4 {
		t.Error("Unexpected result:", ce)
		return
	}
}

func TestCommitFailure(t *testing.T) {
	ws, ctx, logger := newTestContext()

	keys := importExample(ws, "cars")

	ix := NewIndexer(ctx)
	nss, _ := ix.ResolveNamespaces([]string{"Cars"})

	failedBefore := testutil.ToFloat64(metricPasses.WithLabelValues(PassCommitFailed))

	graphstorage.MgsRetFlushAll = errors.New("disk full")

	res, err := ix.Run(nss, Options{})

	graphstorage.MgsRetFlushAll = nil

	if !errors.Is(err, ErrCommitFailure) || res == nil || res.Records() != 8 {
		t.Error("Unexpected result:", res, err)
		return
	}

	if testutil.ToFloat64(metricPasses.WithLabelValues(PassCommitFailed)) != failedBefore+1 {
		t.Error("Commit failure should have been counted")
		return
	}

	if !strings.Contains(logger.String(), "Could not commit changes") {
		t.Error("Unexpected log:", logger.String())
		return
	}

	// Records are visible locally but not published

	records, _, _ := NewQuery(ctx).ReverseLinks(keys["black"])

	if len(records) != 2 {
		t.Error("Unexpected result:", records)
		return
	}

	if n, _ := ws.Manager().FetchNode(records[0].ID); n != nil {
		t.Error("Record should not be published:", n)
		return
	}

	// Retry only the commit

	if err := ix.Commit(); err != nil {
		t.Error(err)
		return
	}

	if n, _ := ws.Manager().FetchNode(records[0].ID); n == nil {
		t.Error("Record should be published")
		return
	}

	// A new workspace on the same storage sees the published index

	ctx2, err := NewContext(graph.NewWorkspace(ws.Manager()), "", nil)
	if err != nil || ctx2.Schema.ID() != ctx.Schema.ID() {
		t.Error("Unexpected result:", ctx2, err)
		return
	}

	if records, _, _ := NewQuery(ctx2).ReverseLinks(keys["black"]); len(records) != 2 {
		t.Error("Unexpected result:", records)
		return
	}

	if ok, _ := ctx2.Schema.IsProcessed(nss[0]); !ok {
		t.Error("Namespace should be processed")
		return
	}
}

func TestBackgroundTask(t *testing.T) {
	ws, ctx, _ := newTestContext()

	importExample(ws, "bank")

	ix := NewIndexer(ctx)

	recordsBefore := testutil.ToFloat64(metricRecords)
	danglingBefore := testutil.ToFloat64(metricDangling)

	var finished []string
	var mutex sync.Mutex

	ix.AddListener("test", func(t *Task) {
		mutex.Lock()
		defer mutex.Unlock()
		finished = append(finished, t.ID())
	})

	nss, _ := ix.ResolveNamespaces([]string{"Accounts"})

	task := ix.Start(nss, Options{})

	if task2, ok := ix.Task(task.ID()); !ok || task2 != task {
		t.Error("Task should be registered")
		return
	}

	<-task.Done()

	res, err := task.Wait()
	if err != nil {
		t.Error(err)
		return
	}

	// acc1: branch1, alice and deposit (dangling) - acc2: branch1 and alice

	if res.Records() != 4 || res.Reports[0].Dangling != 1 {
		t.Error("Unexpected result:", res)
		return
	}

	if res2, _ := task.Result(); res2 != res {
		t.Error("Unexpected result:", res2)
		return
	}

	if _, ok := task.Finished(); !ok {
		t.Error("Task should be finished")
		return
	}

	if testutil.ToFloat64(metricRecords) != recordsBefore+4 ||
		testutil.ToFloat64(metricDangling) != danglingBefore+1 {
		t.Error("Unexpected metrics")
		return
	}

	// Listeners are called after the done channel was closed

	ix.RemoveListener("test")

	task = ix.Start(nss, Options{Force: true})
	task.Wait()

	if tasks := ix.Tasks(); len(tasks) != 2 || tasks[1] != task {
		t.Error("Unexpected result:", tasks)
		return
	}

	mutex.Lock()
	defer mutex.Unlock()

	if len(finished) > 1 {
		t.Error("Removed listener should not be called:", finished)
		return
	}
}

func TestConcurrentRuns(t *testing.T) {
	ws, ctx, _ := newTestContext()

	keys := importExample(ws, "cars")

	ix := NewIndexer(ctx)
	nss, _ := ix.ResolveNamespaces([]string{"Cars"})

	const n = 5

	var wg sync.WaitGroup
	results := make(chan *Result, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ix.Run(nss, Options{})
			errorutil.AssertOk(err)
			results <- res
		}()
	}

	wg.Wait()
	close(results)

	// Only one pass materializes the namespace, all others skip it

	materialized, skipped := 0, 0

	for res := range results {
		materialized += len(res.Reports)
		skipped += len(res.Skipped)
	}

	if materialized != 1 || skipped != n-1 {
		t.Error("Unexpected result:", materialized, skipped)
		return
	}

	black, _, _ := ws.Node(keys["black"])

	if r := shadowRecords(ctx, black.Namespace()); len(r) != 2 {
		t.Error("Unexpected result:", r)
		return
	}
}
