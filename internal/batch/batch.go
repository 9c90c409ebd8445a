// Package batch runs independent per-item work and gathers one result per item.
package batch

import (
	"context"
	"sync"
)

// ItemResult is the outcome of one item. Err is nil on success.
type ItemResult struct {
	Item   string
	Output string
	Err    error
}

// OK reports success.
func (r ItemResult) OK() bool { return r.Err == nil }

// Run calls fn for every item with at most limit calls in flight and returns
// the results in input order, so len(result) == len(items) always holds.
// label names an item in its result. A limit below one runs items
// sequentially. Items not started before ctx is done get ctx.Err().
func Run[T any](ctx context.Context, items []T, limit int, label func(T) string, fn func(ctx context.Context, item T) (string, error)) []ItemResult {
	if limit < 1 {
		limit = 1
	}
	results := make([]ItemResult, len(items))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, item := range items {
		results[i].Item = label(item)
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		select {
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			out, err := fn(ctx, item)
			results[i].Output = out
			results[i].Err = err
		}()
	}
	wg.Wait()
	return results
}

// Strings is the identity label for string items.
func Strings(s string) string { return s }

// Failed returns the failed results.
func Failed(results []ItemResult) []ItemResult {
	var out []ItemResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Succeeded counts successful results.
func Succeeded(results []ItemResult) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}
