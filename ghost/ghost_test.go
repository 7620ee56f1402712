package ghost

import "testing"

// Reads and writes go through the same token; aliases observe writes.
func TestCell_ReadWriteThroughToken(t *testing.T) {
	t.Parallel()

	type brand struct{}
	got := Scope(func(tok *Token[brand]) int {
		c := NewCell[brand](1)
		alias := &c

		*c.Mut(tok) += 41
		return alias.Get(tok)
	})
	if got != 42 {
		t.Fatalf("want 42, got %d", got)
	}
}

// Replace returns the previous value; Set overwrites in place.
func TestCell_ReplaceAndSet(t *testing.T) {
	t.Parallel()

	type brand struct{}
	tok := NewToken[brand]()
	c := NewCell[brand]("a")

	if old := c.Replace(tok, "b"); old != "a" {
		t.Fatalf("Replace must return old value, got %q", old)
	}
	c.Set(tok, "c")
	if v := c.Get(tok); v != "c" {
		t.Fatalf("want c, got %q", v)
	}
}

// Unchecked accessors work without a token; Into leaves the zero value.
func TestCell_UncheckedAccess(t *testing.T) {
	t.Parallel()

	type brand struct{}
	c := NewCell[brand]([]int{1, 2})
	*c.UnsafeMut() = append(*c.UnsafeMut(), 3)

	v := c.Into()
	if len(v) != 3 || v[2] != 3 {
		t.Fatalf("unexpected value %v", v)
	}
	if c.UnsafeMut() == nil || *c.UnsafeMut() != nil {
		t.Fatalf("Into must leave the zero value behind")
	}
}

// Scope returns whatever the closure returns.
func TestScope_ReturnsResult(t *testing.T) {
	t.Parallel()

	type brand struct{}
	s := Scope(func(*Token[brand]) string { return "done" })
	if s != "done" {
		t.Fatalf("want done, got %q", s)
	}
}
