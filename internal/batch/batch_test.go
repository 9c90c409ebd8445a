package batch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_OneResultPerItemInOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	results := Run(context.Background(), items, 3, Strings, func(_ context.Context, item string) (string, error) {
		if item == "c" {
			return "", errors.New("boom")
		}
		return strings.ToUpper(item), nil
	})

	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, items[i], r.Item)
	}
	assert.Equal(t, "A", results[0].Output)
	assert.False(t, results[2].OK())
	assert.Equal(t, 4, Succeeded(results))
	assert.Len(t, Failed(results), 1)
}

func TestRun_RespectsLimit(t *testing.T) {
	var inFlight, peak int32
	items := make([]string, 12)
	for i := range items {
		items[i] = string(rune('a' + i))
	}
	Run(context.Background(), items, 2, Strings, func(context.Context, string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "", nil
	})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Run(ctx, []string{"a", "b"}, 1, Strings, func(context.Context, string) (string, error) {
		t.Fatal("must not be called")
		return "", nil
	})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
