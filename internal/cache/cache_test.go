package cache

import "testing"

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a missing")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s missing", k)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCacheSetReplaces(t *testing.T) {
	c := New[string, int](0)
	c.Set("k", 1)
	c.Set("k", 2)
	if v, _ := c.Get("k"); v != 2 {
		t.Errorf("Get = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCacheDeleteClearStats(t *testing.T) {
	c := New[int, string](4)
	c.Set(1, "one")
	c.Get(1)
	c.Get(2)

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Len != 1 || st.Limit != 4 {
		t.Errorf("Stats = %+v", st)
	}
	if !c.Delete(1) || c.Delete(1) {
		t.Error("Delete should report presence once")
	}
	c.Set(3, "three")
	c.Clear()
	if c.Len() != 0 || c.Stats().Hits != 0 {
		t.Errorf("after Clear: Len=%d Stats=%+v", c.Len(), c.Stats())
	}
}

func TestRingOrder(t *testing.T) {
	var r ring[int, string]
	r.init()
	if r.oldest() != nil {
		t.Fatal("oldest on empty ring")
	}
	n1 := &node[int, string]{key: 1}
	n2 := &node[int, string]{key: 2}
	n3 := &node[int, string]{key: 3}
	r.insertFront(n1)
	r.insertFront(n2)
	r.insertFront(n3)
	r.touch(n1)

	if old := r.oldest(); old != n2 {
		t.Fatal("oldest is not key 2")
	}
	r.remove(n2)
	if old := r.oldest(); old != n3 {
		t.Error("oldest after remove is not key 3")
	}
	r.touch(n1)
	r.remove(n3)
	r.remove(n1)
	if r.oldest() != nil {
		t.Error("ring not empty after removing every node")
	}
}
