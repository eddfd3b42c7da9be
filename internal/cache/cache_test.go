package cache

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "positive size", size: 8, wantErr: false},
		{name: "zero size", size: 0, wantErr: true},
		{name: "negative size", size: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.size)
			if tt.wantErr {
				if err == nil {
					t.Errorf("New(%d) expected error, got nil", tt.size)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%d) unexpected error: %v", tt.size, err)
			}
			if c == nil {
				t.Fatal("New() returned nil cache")
			}
		})
	}
}

func TestNodeIDCache_PutGetDelete(t *testing.T) {
	c, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	c.Put("a", 1)
	c.Put("b", 2)

	if id, ok := c.Get("a"); !ok || id != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", id, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Delete() should miss")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", c.Len())
	}
}

func TestNodeIDCache_Evicts(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("least recently used entry should have been evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}
