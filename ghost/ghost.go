// Package ghost implements branded cells: slots that may be aliased freely but
// are only dereferenced through a token carrying the same brand.
//
// A brand is any type the caller declares; it has no runtime value. Declaring
// it inside a function makes it unnameable anywhere else, so neither the token
// nor cells branded with it can be mixed with another scope's:
//
//	func run() int {
//	    type brand struct{}
//	    return ghost.Scope(func(tok *ghost.Token[brand]) int {
//	        c := ghost.NewCell[brand](1)
//	        *c.Mut(tok) += 1
//	        return c.Get(tok)
//	    })
//	}
//
// Go generics are invariant, so a *Token[A] never satisfies a parameter of type
// *Token[B]; the brand check is a type check with no runtime tag.
//
// Go has one pointer kind, so the read/write split of the token is a
// convention: Get reads, Mut and Set write. Every writer of one brand must be
// serialized by its owner (one goroutine, or an external lock guarding both the
// token and the cells).
package ghost

// Token is the capability for brand B. Holding it authorizes reading and
// writing every Cell[B, T].
type Token[B any] struct {
	_ noCopy
}

// noCopy makes `go vet` flag tokens copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Scope mints the token for brand B, calls fn with it and returns fn's result.
// The token must not outlive fn.
func Scope[B, R any](fn func(tok *Token[B]) R) R {
	var tok Token[B]
	return fn(&tok)
}

// NewToken mints a token for owners that live longer than one call, such as a
// cache shard keeping its token next to the list it guards.
// Only one token may be minted per set of cells; this is not checked.
func NewToken[B any]() *Token[B] { return new(Token[B]) }

// Cell owns one value of type T branded with B.
type Cell[B, T any] struct {
	v T
	_ [0]func(B) B // ties the brand into the type
}

// NewCell wraps v in a cell of brand B.
func NewCell[B, T any](v T) Cell[B, T] { return Cell[B, T]{v: v} }

// Get returns a copy of the value.
func (c *Cell[B, T]) Get(_ *Token[B]) T { return c.v }

// Mut returns a pointer to the value. The pointer is valid while the caller
// keeps exclusive use of tok.
func (c *Cell[B, T]) Mut(_ *Token[B]) *T { return &c.v }

// Set overwrites the value.
func (c *Cell[B, T]) Set(_ *Token[B], v T) { c.v = v }

// Replace stores v and returns the previous value.
func (c *Cell[B, T]) Replace(_ *Token[B], v T) T {
	old := c.v
	c.v = v
	return old
}

// UnsafeMut returns a pointer to the value without a token.
// The caller must have established that no other access to the cell can
// happen, e.g. while tearing down a structure nothing else references.
func (c *Cell[B, T]) UnsafeMut() *T { return &c.v }

// Into moves the value out and leaves the zero value behind.
// Same precondition as UnsafeMut.
func (c *Cell[B, T]) Into() T {
	v := c.v
	var zero T
	c.v = zero
	return v
}
