// ABOUTME: Stress tests for concurrent store access.
// ABOUTME: Writers and readers share one Store the way HTTP handlers do.

package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/query"
)

func TestConcurrentWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	numGoroutines := 20
	itemsPerGoroutine := 24
	var wg sync.WaitGroup
	var errorCount int32

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < itemsPerGoroutine; j++ {
				it := &content.Item{
					Type:   "event",
					Title:  fmt.Sprintf("Event %d-%d", id, j),
					Status: []string{"publish", "draft"}[j%2],
				}
				if _, err := s.CreateItem(ctx, it); err != nil {
					atomic.AddInt32(&errorCount, 1)
					t.Logf("create: %v", err)
					continue
				}
				if err := s.SetMeta(ctx, it.ID, "writer", fmt.Sprint(id)); err != nil {
					atomic.AddInt32(&errorCount, 1)
					t.Logf("meta: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Zero(t, errorCount)

	counts, err := s.CountByStatus(ctx, "event")
	require.NoError(t, err)
	assert.Equal(t, numGoroutines*itemsPerGoroutine/2, counts["publish"])
	assert.Equal(t, numGoroutines*itemsPerGoroutine/2, counts["draft"])

	writers, err := s.DistinctMetaValues(ctx, "event", "writer")
	require.NoError(t, err)
	assert.Len(t, writers, numGoroutines)
}

func TestConcurrentReadWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := s.CreateItem(ctx, &content.Item{Type: "event", Title: fmt.Sprintf("Seed %d", i), Status: "publish"})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	var readErrors, writeErrors int32

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				it := &content.Item{Type: "event", Title: fmt.Sprintf("Live %d-%d", id, j), Status: "publish"}
				if _, err := s.CreateItem(ctx, it); err != nil {
					atomic.AddInt32(&writeErrors, 1)
				}
			}
		}(i)
	}

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				q := query.New([]string{"event"}, map[string]string{"orderby": "title", "order": "asc"})
				q.Statuses = []string{"publish"}
				q.Limit = 10
				q.Offset = (id + j) % 5 * 10
				items, total, err := s.Items(ctx, q)
				if err != nil {
					atomic.AddInt32(&readErrors, 1)
					continue
				}
				if total < 50 || len(items) > 10 {
					atomic.AddInt32(&readErrors, 1)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Zero(t, writeErrors)
	assert.Zero(t, readErrors)

	counts, err := s.CountByStatus(ctx, "event")
	require.NoError(t, err)
	assert.Equal(t, 50+10*20, counts["publish"])
}

func TestConcurrentTermAssignment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var venues []int64
	for _, name := range []string{"Main Hall", "Garden Stage", "Library Annex"} {
		term, err := s.CreateTerm(ctx, content.Term{Taxonomy: "venue", Name: name})
		require.NoError(t, err)
		venues = append(venues, term.ID)
	}

	var items []int64
	for i := 0; i < 30; i++ {
		it, err := s.CreateItem(ctx, &content.Item{Type: "event", Title: fmt.Sprintf("Event %d", i), Status: "publish"})
		require.NoError(t, err)
		items = append(items, it.ID)
	}

	// Every goroutine reassigns every item; the last write per item wins
	// and each item must end with exactly one venue.
	var wg sync.WaitGroup
	var errorCount int32
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i, id := range items {
				if err := s.SetTerms(ctx, id, "venue", []int64{venues[(g+i)%len(venues)]}); err != nil {
					atomic.AddInt32(&errorCount, 1)
					t.Logf("set terms: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Zero(t, errorCount)

	total := 0
	for _, id := range items {
		terms, err := s.Terms(ctx, id, "venue")
		require.NoError(t, err)
		assert.Len(t, terms, 1)
		total += len(terms)
	}
	assert.Equal(t, len(items), total)
}

func BenchmarkConcurrentWrites(b *testing.B) {
	s, err := New(b.TempDir() + "/bench.db")
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	var n int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := atomic.AddInt64(&n, 1)
			if _, err := s.CreateItem(ctx, &content.Item{Type: "event", Title: fmt.Sprintf("Bench %d", i)}); err != nil {
				b.Error(err)
			}
		}
	})
}

func BenchmarkConcurrentReads(b *testing.B) {
	s, err := New(b.TempDir() + "/bench.db")
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		if _, err := s.CreateItem(ctx, &content.Item{Type: "event", Title: fmt.Sprintf("Bench %d", i), Status: "publish"}); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			q := query.New([]string{"event"}, nil)
			q.Limit = 20
			if _, _, err := s.Items(ctx, q); err != nil {
				b.Error(err)
			}
		}
	})
}
