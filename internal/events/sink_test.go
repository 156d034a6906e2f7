package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factcheck/internal/model"
)

func TestRecorder_OrderAndCounts(t *testing.T) {
	rec := NewRecorder()

	rec.Emit(model.NewQueryGeneratedEvent("claim", "query one"))
	rec.Emit(model.NewQueryGeneratedEvent("claim", "query two"))
	rec.Emit(model.NewErrorEvent(model.ScopeClaim, "claim", "boom"))

	all := rec.Events()
	require.Len(t, all, 3)
	assert.Equal(t, model.EventSearchQueryGenerated, all[0].Type)
	assert.Equal(t, model.EventError, all[2].Type)

	assert.Equal(t, 2, rec.Count(model.EventSearchQueryGenerated))
	assert.Equal(t, 1, rec.Count(model.EventError))
	assert.Empty(t, rec.ByType(model.EventClaimVerificationResult))

	first, ok := all[0].Data.(model.QueryGenerated)
	require.True(t, ok)
	assert.Equal(t, "query one", first.Query)
}

func TestRecorder_ConcurrentEmit(t *testing.T) {
	rec := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Emit(model.NewQueryGeneratedEvent("claim", "q"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, rec.Count(model.EventSearchQueryGenerated))
}

func TestLocked_ConcurrentEmit(t *testing.T) {
	var count int
	sink := NewLocked(Func(func(model.Event) { count++ }))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Emit(model.NewQueryGeneratedEvent("claim", "q"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, count)
}

func TestChannel_DeliversInOrder(t *testing.T) {
	ch := NewChannel(8)

	ch.Emit(model.NewQueryGeneratedEvent("claim", "first"))
	ch.Emit(model.NewQueryGeneratedEvent("claim", "second"))
	ch.Close()

	var got []model.Event
	for ev := range ch.Events() {
		got = append(got, ev)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Data.(model.QueryGenerated).Query)
	assert.Equal(t, "second", got[1].Data.(model.QueryGenerated).Query)
	assert.Equal(t, 0, ch.Dropped())
}

func TestChannel_DropsWhenFull(t *testing.T) {
	ch := NewChannel(1)

	ch.Emit(model.NewQueryGeneratedEvent("claim", "kept"))
	ch.Emit(model.NewQueryGeneratedEvent("claim", "dropped"))
	ch.Emit(model.NewQueryGeneratedEvent("claim", "also dropped"))

	assert.Equal(t, 2, ch.Dropped())

	ch.Close()
	var got []model.Event
	for ev := range ch.Events() {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Data.(model.QueryGenerated).Query)
}

func TestChannel_EmitAfterCloseIsSafe(t *testing.T) {
	ch := NewChannel(1)
	ch.Close()

	assert.NotPanics(t, func() {
		ch.Emit(model.NewQueryGeneratedEvent("claim", "late"))
	})
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Emit(model.NewErrorEvent(model.ScopeRun, "", "ignored"))
	})
}
