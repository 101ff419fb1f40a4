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
	"fmt"
	"sort"
	"sync"
	"time"

	"devt.de/krotik/common/cryptutil"
	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/revlinks/graph/data"
)

/*
Options of an indexing pass
*/
type Options struct {
	Force bool // Materialize namespaces even if they were processed before
}

/*
Result is the result of an indexing pass.
*/
type Result struct {
	Reports   []*Report `json:"reports"`   // Reports of all materialized namespaces
	Skipped   []data.ID `json:"skipped"`   // Namespaces which were skipped
	Opposites int       `json:"opposites"` // Number of computed @opposite properties
}

/*
Records returns the number of created records of all namespaces.
*/
func (r *Result) Records() int {
	var ret int

	for _, rep := range r.Reports {
		ret += rep.Records
	}

	return ret
}

/*
TaskListener is notified when a background pass has finished.
*/
type TaskListener func(t *Task)

/*
Indexer runs indexing passes. A pass materializes a set of namespaces,
computes the @opposite properties of all their nodes and commits the store.
Namespaces which were processed before are skipped unless the Force option
is set.
*/
type Indexer struct {
	ctx        *Context
	builder    *Builder
	aggregator *Aggregator

	tasks     map[string]*Task        // Background tasks by id
	listeners map[string]TaskListener // Listeners for finished tasks
	mutex     *sync.Mutex             // Lock for tasks and listeners
}

/*
NewIndexer creates a new Indexer.
*/
func NewIndexer(ctx *Context) *Indexer {
	return &Indexer{ctx, NewBuilder(ctx), NewAggregator(ctx),
		make(map[string]*Task), make(map[string]TaskListener), &sync.Mutex{}}
}

/*
Context returns the context of this indexer.
*/
func (ix *Indexer) Context() *Context {
	return ix.ctx
}

/*
ResolveNamespaces resolves a list of namespace names. Names are not unique
so all namespaces with a given name are returned. An empty list resolves to
all namespaces except shadow namespaces and the schema namespace. Returns
an ErrNotFound error if a name cannot be resolved.
*/
func (ix *Indexer) ResolveNamespaces(names []string) ([]data.ID, error) {

	all, err := ix.ctx.Store.Namespaces()
	if err != nil {
		return nil, err
	}

	var ret []data.ID

	if len(names) == 0 {
		for _, ns := range all {
			if !ix.ctx.IsInternal(ns) {
				ret = append(ret, ns.ID)
			}
		}
		return ret, nil
	}

	seen := make(map[data.ID]bool)

	for _, name := range names {
		found := false

		for _, ns := range all {
			if ns.Name == name {
				found = true

				if !seen[ns.ID] {
					seen[ns.ID] = true
					ret = append(ret, ns.ID)
				}
			}
		}

		if !found {
			return nil, &Error{ErrNotFound, fmt.Sprintf("Namespace %v", name)}
		}
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i] < ret[j]
	})

	return ret, nil
}

/*
Run runs a synchronous indexing pass over the given namespaces. Shadow
namespaces and the schema namespace are always skipped. If the final commit
fails an ErrCommitFailure error is returned together with the result; all
changes remain visible locally and Commit can be called to retry.
*/
func (ix *Indexer) Run(namespaces []data.ID, opts Options) (*Result, error) {
	start := time.Now()

	res, err := ix.run(namespaces, opts)

	if err == nil {
		if err = ix.Commit(); err != nil {
			metricPasses.WithLabelValues(PassCommitFailed).Inc()
		} else {
			metricPasses.WithLabelValues(PassOK).Inc()
		}
	} else {
		metricPasses.WithLabelValues(PassError).Inc()
	}

	metricPassDuration.Observe(time.Since(start).Seconds())

	return res, err
}

/*
run materializes all given namespaces without committing.
*/
func (ix *Indexer) run(namespaces []data.ID, opts Options) (*Result, error) {
	res := &Result{Reports: []*Report{}, Skipped: []data.ID{}}

	for _, id := range namespaces {
		skipped, err := ix.runNamespace(res, id, opts)

		if err != nil {
			return res, err
		} else if skipped {
			res.Skipped = append(res.Skipped, id)
		}
	}

	ix.ctx.Logger.LogInfo(fmt.Sprintf("Finished pass: %v namespace%v materialized, %v skipped, %v records created",
		len(res.Reports), stringutil.Plural(len(res.Reports)), len(res.Skipped), res.Records()))

	return res, nil
}

/*
runNamespace materializes a single namespace and computes the @opposite
properties of all its nodes. Returns true if the namespace was skipped.
*/
func (ix *Indexer) runNamespace(res *Result, id data.ID, opts Options) (bool, error) {

	defer ix.ctx.locks.lock("ns/" + id.String())()

	ns, ok, err := ix.ctx.Store.Namespace(id)
	if err != nil {
		return false, err
	} else if !ok {
		return false, &Error{ErrNotFound, fmt.Sprintf("Namespace %v", id)}
	}

	if ix.ctx.IsInternal(ns) {
		ix.ctx.Logger.LogDebug("Skipping internal namespace ", ns)
		return true, nil
	}

	if !opts.Force {
		processed, err := ix.ctx.Schema.IsProcessed(id)
		if err != nil {
			return false, err
		} else if processed {
			ix.ctx.Logger.LogInfo("Skipping already processed namespace ", ns)
			return true, nil
		}
	}

	report, err := ix.builder.Materialize(id)
	if err != nil {
		return false, err
	}

	res.Reports = append(res.Reports, report)
	recordReport(report)

	nodes, err := ix.ctx.Store.NodesOf(id)
	if err != nil {
		return false, err
	}

	for _, n := range nodes {
		if _, err := ix.aggregator.ComputeOpposite(n.ID()); err != nil {
			return false, err
		}
		res.Opposites++
	}

	return false, nil
}

/*
Commit publishes all changes of the store.
*/
func (ix *Indexer) Commit() error {
	if err := ix.ctx.Store.Commit(); err != nil {
		ix.ctx.Logger.LogError("Could not commit changes: ", err)
		return &Error{ErrCommitFailure, err.Error()}
	}

	return nil
}

// Background tasks
// ================

/*
Task is an indexing pass which runs in the background.
*/
type Task struct {
	id         string        // Unique task id
	namespaces []data.ID     // Namespaces of the pass
	opts       Options       // Options of the pass
	started    time.Time     // Start time
	finished   time.Time     // Finish time
	result     *Result       // Result of the pass
	err        error         // Error of the pass
	done       chan struct{} // Closed once the pass has finished
}

/*
ID returns the unique id of this task.
*/
func (t *Task) ID() string {
	return t.id
}

/*
Namespaces returns the namespaces of this task.
*/
func (t *Task) Namespaces() []data.ID {
	return append([]data.ID(nil), t.namespaces...)
}

/*
Options returns the options of this task.
*/
func (t *Task) Options() Options {
	return t.opts
}

/*
Started returns the start time of this task.
*/
func (t *Task) Started() time.Time {
	return t.started
}

/*
Done returns a channel which is closed once the task has finished.
*/
func (t *Task) Done() <-chan struct{} {
	return t.done
}

/*
Finished returns if the task has finished and when.
*/
func (t *Task) Finished() (time.Time, bool) {
	select {
	case <-t.done:
		return t.finished, true
	default:
		return time.Time{}, false
	}
}

/*
Wait waits for the task to finish and returns its result.
*/
func (t *Task) Wait() (*Result, error) {
	<-t.done
	return t.result, t.err
}

/*
Result returns the result of a finished task. Returns nil if the task is
still running.
*/
func (t *Task) Result() (*Result, error) {
	if _, ok := t.Finished(); !ok {
		return nil, nil
	}
	return t.result, t.err
}

/*
Start starts an indexing pass in the background. The returned task cannot be
cancelled.
*/
func (ix *Indexer) Start(namespaces []data.ID, opts Options) *Task {

	t := &Task{
		id:         fmt.Sprintf("%x", cryptutil.GenerateUUID()),
		namespaces: append([]data.ID(nil), namespaces...),
		opts:       opts,
		started:    time.Now(),
		done:       make(chan struct{}),
	}

	ix.mutex.Lock()
	ix.tasks[t.id] = t
	ix.mutex.Unlock()

	ix.ctx.Logger.LogInfo("Starting background pass ", t.id)

	go func() {
		t.result, t.err = ix.Run(t.namespaces, t.opts)
		t.finished = time.Now()
		close(t.done)

		if t.err != nil {
			ix.ctx.Logger.LogError("Background pass ", t.id, " failed: ", t.err)
		}

		ix.mutex.Lock()
		listeners := make([]TaskListener, 0, len(ix.listeners))
		for _, l := range ix.listeners {
			listeners = append(listeners, l)
		}
		ix.mutex.Unlock()

		for _, l := range listeners {
			l(t)
		}
	}()

	return t
}

/*
Task returns a background task by its id.
*/
func (ix *Indexer) Task(id string) (*Task, bool) {
	ix.mutex.Lock()
	defer ix.mutex.Unlock()

	t, ok := ix.tasks[id]

	return t, ok
}

/*
Tasks returns all background tasks ordered by start time.
*/
func (ix *Indexer) Tasks() []*Task {
	ix.mutex.Lock()
	defer ix.mutex.Unlock()

	ret := make([]*Task, 0, len(ix.tasks))
	for _, t := range ix.tasks {
		ret = append(ret, t)
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].started.Before(ret[j].started)
	})

	return ret
}

/*
AddListener registers a listener for finished background tasks.
*/
func (ix *Indexer) AddListener(name string, l TaskListener) {
	ix.mutex.Lock()
	defer ix.mutex.Unlock()

	ix.listeners[name] = l
}

/*
RemoveListener removes a listener.
*/
func (ix *Indexer) RemoveListener(name string) {
	ix.mutex.Lock()
	defer ix.mutex.Unlock()

	delete(ix.listeners, name)
}
