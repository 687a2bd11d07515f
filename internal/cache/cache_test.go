package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCacheLoadsOncePerKey(t *testing.T) {
	c := New[string, int]()
	var calls int32

	load := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad("zlib", load)
			if err != nil || v != 42 {
				t.Errorf("GetOrLoad() = %d, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestCacheMemoizesErrors(t *testing.T) {
	c := New[string, int]()
	wantErr := errors.New("boom")
	var calls int32

	load := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, wantErr
	}

	for i := 0; i < 3; i++ {
		_, err := c.GetOrLoad("curl", load)
		if !errors.Is(err, wantErr) {
			t.Fatalf("GetOrLoad() err = %v, want %v", err, wantErr)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1 (errors must be memoized too)", calls)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := New[string, int]()
	n := 0
	load := func() (int, error) {
		n++
		return n, nil
	}

	v, _ := c.GetOrLoad("zlib", load)
	if v != 1 {
		t.Fatalf("first load = %d, want 1", v)
	}
	c.Invalidate("zlib")
	v, _ = c.GetOrLoad("zlib", load)
	if v != 2 {
		t.Fatalf("load after invalidate = %d, want 2", v)
	}
}

func TestCacheSingleLoadsOnce(t *testing.T) {
	var cs CacheSingle[string]
	var calls int32
	load := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		return "default", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cs.Get(load)
			if err != nil || v != "default" {
				t.Errorf("Get() = %q, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}
