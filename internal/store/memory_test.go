package store

import (
	"sync"
	"testing"
	"time"
)

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	if len(store.GetAll()) != 0 {
		t.Errorf("GetAll() = %v items, want 0", len(store.GetAll()))
	}
}

func TestMemoryStore_UpdateAndGet(t *testing.T) {
	store := NewMemoryStore()
	cursor := 234

	store.Update(Report{
		Source:    SourceSync,
		Sequence:  1,
		Phase:     "awaiting_first_delta",
		Cursor:    &cursor,
		BatchSize: 12,
	})

	got, ok := store.Get(SourceSync)
	if !ok {
		t.Fatal("Get(sync) ok = false, want true")
	}
	if got.BatchSize != 12 {
		t.Errorf("BatchSize = %d, want 12", got.BatchSize)
	}
	if got.Cursor == nil || *got.Cursor != 234 {
		t.Errorf("Cursor = %v, want 234", got.Cursor)
	}

	if _, ok := store.Get(SourceStress); ok {
		t.Error("Get(stress) ok = true, want false")
	}
}

func TestMemoryStore_UpdateOverwrites(t *testing.T) {
	store := NewMemoryStore()

	store.Update(Report{Source: SourceStress, Sequence: 1, Failed: 3})
	store.Update(Report{Source: SourceStress, Sequence: 2, Failed: 0})

	all := store.GetAll()
	if len(all) != 1 {
		t.Fatalf("GetAll() = %v items, want 1", len(all))
	}
	if all[0].Sequence != 2 {
		t.Errorf("GetAll()[0].Sequence = %d, want 2", all[0].Sequence)
	}
}

func TestMemoryStore_GetAllOrderedBySource(t *testing.T) {
	store := NewMemoryStore()

	store.Update(Report{Source: SourceSync})
	store.Update(Report{Source: SourceStress})

	all := store.GetAll()
	if len(all) != 2 {
		t.Fatalf("GetAll() = %v items, want 2", len(all))
	}
	if all[0].Source != SourceStress || all[1].Source != SourceSync {
		t.Errorf("GetAll() order = [%s %s], want [stress sync]", all[0].Source, all[1].Source)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	go func() {
		store.Update(Report{Source: SourceSync, Sequence: 7})
	}()

	select {
	case report := <-ch:
		if report.Sequence != 7 {
			t.Errorf("received Sequence = %v, want 7", report.Sequence)
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive update")
	}
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore()

	ch1 := store.Subscribe()
	ch2 := store.Subscribe()

	go func() {
		store.Update(Report{Source: SourceStress})
	}()

	received := 0
	timeout := time.After(1 * time.Second)

	for received < 2 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-timeout:
			t.Fatalf("Only received %d/2 updates", received)
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	store.Unsubscribe(ch)
	store.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore()

	// never read
	_ = store.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*subscriberBuffer; i++ {
			store.Update(Report{Source: SourceStress, Sequence: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Update() blocked on slow subscriber")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Update(Report{Source: SourceSync, Sequence: j})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = store.GetAll()
			}
		}()
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}

	wg.Wait()
}
