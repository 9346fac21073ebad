// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package graph runs a small per-frame task DAG.
//
// Tasks declare the resources they read and write. Edges are derived from
// those sets in declaration order: a task depends on every earlier task it
// conflicts with (write then read, write then write, read then write).
// Tasks with no path between them run concurrently.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Resource names a buffer or surface shared between tasks.
type Resource string

// Task is one node of the graph.
type Task struct {
	Name   string
	Reads  []Resource
	Writes []Resource
	Run    func(ctx context.Context) error
}

// Timing records how long a task ran. Ran is false for tasks skipped
// because an upstream task failed or the context was cancelled.
type Timing struct {
	Name     string
	Duration time.Duration
	Ran      bool
}

// Graph is an immutable set of tasks with derived dependencies.
type Graph struct {
	tasks []Task
	deps  [][]int
}

// ErrInvalidTask is returned by New for unnamed, duplicate or empty tasks.
var ErrInvalidTask = errors.New("graph: invalid task")

// New validates the tasks and derives their dependencies.
func New(tasks ...Task) (*Graph, error) {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		switch {
		case t.Name == "":
			return nil, fmt.Errorf("%w: empty name", ErrInvalidTask)
		case t.Run == nil:
			return nil, fmt.Errorf("%w: %s has no Run", ErrInvalidTask, t.Name)
		case seen[t.Name]:
			return nil, fmt.Errorf("%w: duplicate name %s", ErrInvalidTask, t.Name)
		}
		seen[t.Name] = true
	}

	g := &Graph{tasks: tasks, deps: make([][]int, len(tasks))}
	for j := range tasks {
		for i := 0; i < j; i++ {
			if conflicts(tasks[i], tasks[j]) {
				g.deps[j] = append(g.deps[j], i)
			}
		}
	}
	return g, nil
}

func conflicts(earlier, later Task) bool {
	return overlaps(earlier.Writes, later.Reads) ||
		overlaps(earlier.Writes, later.Writes) ||
		overlaps(earlier.Reads, later.Writes)
}

func overlaps(a, b []Resource) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Deps returns the names of the tasks the named task waits for.
func (g *Graph) Deps(name string) []string {
	for j, t := range g.tasks {
		if t.Name != name {
			continue
		}
		out := make([]string, len(g.deps[j]))
		for k, i := range g.deps[j] {
			out[k] = g.tasks[i].Name
		}
		return out
	}
	return nil
}

// Len returns the number of tasks.
func (g *Graph) Len() int { return len(g.tasks) }

// Execute runs every task once its dependencies have finished. The first
// error cancels the context passed to the remaining tasks; tasks downstream
// of a failure are skipped. If ctx is cancelled before every task ran, its
// error is returned. Timings are returned in declaration order even on
// error.
func (g *Graph) Execute(ctx context.Context) ([]Timing, error) {
	parent := ctx
	n := len(g.tasks)
	done := make([]chan struct{}, n)
	ok := make([]bool, n)
	for i := range done {
		done[i] = make(chan struct{})
	}

	timings := make([]Timing, n)

	eg, ctx := errgroup.WithContext(ctx)
	for j := range g.tasks {
		t := g.tasks[j]
		timings[j].Name = t.Name
		eg.Go(func() error {
			defer close(done[j])
			for _, i := range g.deps[j] {
				select {
				case <-done[i]:
				case <-ctx.Done():
					return nil
				}
				// ok[i] is published by close(done[i]).
				if !ok[i] {
					return nil
				}
			}
			if ctx.Err() != nil {
				return nil
			}

			start := time.Now()
			err := t.Run(ctx)
			elapsed := time.Since(start)

			timings[j].Duration = elapsed
			timings[j].Ran = true

			if err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			ok[j] = true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return timings, err
	}
	for _, t := range timings {
		if !t.Ran {
			return timings, parent.Err()
		}
	}
	return timings, nil
}
