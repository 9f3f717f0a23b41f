package boolexpr

// Negator pushes a logical NOT through a tree. It returns the negated tree
// and true, or the input unchanged and false if negation is unsupported
// for this payload.
type Negator[T any] func(n Node[T]) (Node[T], bool)

// NoOpNegator is the Negator for payloads that deliberately do not support
// negation-pushdown. Callers that need NOT must restructure the expression
// themselves (keep the NOT as a residual wrapper instead of negating
// atoms).
func NoOpNegator[T any]() Negator[T] {
	return func(n Node[T]) (Node[T], bool) {
		return n, false
	}
}

// DeMorganNegator builds a Negator that swaps conjunctions and
// disjunctions and negates atoms with atomNeg. If atomNeg reports that an
// atom cannot be negated, the whole negation fails and the original tree
// is returned.
func DeMorganNegator[T any](atomNeg func(T) (T, bool)) Negator[T] {
	var neg Negator[T]
	neg = func(n Node[T]) (Node[T], bool) {
		switch t := n.(type) {
		case *Atom[T]:
			e, ok := atomNeg(t.Expr)
			if !ok {
				return n, false
			}
			return MakeAtom(e), true
		case *Conjunction[T]:
			children, ok := negateChildren(t.Children, neg)
			if !ok {
				return n, false
			}
			return MakeDisjunction(children...), true
		case *Disjunction[T]:
			children, ok := negateChildren(t.Children, neg)
			if !ok {
				return n, false
			}
			return MakeConjunction(children...), true
		default:
			return n, false
		}
	}
	return neg
}

func negateChildren[T any](children []Node[T], neg Negator[T]) ([]Node[T], bool) {
	out := make([]Node[T], len(children))
	for i, c := range children {
		n, ok := neg(c)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

// BuilderOption configures a Builder.
type BuilderOption[T any] func(*Builder[T])

// SimplifyEmptyOrSingular collapses a composite with exactly one child
// into that child and an empty composite into the configured identity
// node.
func SimplifyEmptyOrSingular[T any]() BuilderOption[T] {
	return func(b *Builder[T]) {
		b.simplifyEmptyOrSingular = true
	}
}

// RemoveDuplicates coalesces structurally-equal siblings, compared with
// eq over atom payloads.
func RemoveDuplicates[T any](eq func(x, y T) bool) BuilderOption[T] {
	return func(b *Builder[T]) {
		b.removeDups = true
		b.eq = eq
	}
}

// WithNegator installs the NOT-pushdown strategy used by Negate.
func WithNegator[T any](neg Negator[T]) BuilderOption[T] {
	return func(b *Builder[T]) {
		b.negator = neg
	}
}

// WithConjunctionIdentity sets the node an empty conjunction degenerates
// to when SimplifyEmptyOrSingular is on. Semantically this is "true";
// each instantiation documents its own encoding of it.
func WithConjunctionIdentity[T any](n Node[T]) BuilderOption[T] {
	return func(b *Builder[T]) {
		b.conjIdentity = n
	}
}

// WithDisjunctionIdentity sets the node an empty disjunction degenerates
// to when SimplifyEmptyOrSingular is on. Semantically this is "false".
func WithDisjunctionIdentity[T any](n Node[T]) BuilderOption[T] {
	return func(b *Builder[T]) {
		b.disjIdentity = n
	}
}

// Builder accumulates atoms and sub-expressions into an internal buffer
// and produces an immutable tree on FinishConjunction or FinishDisjunction.
// Partially-built state is never exposed. The zero Builder (no options) is
// usable: no simplification, no dedup, no-op negator.
type Builder[T any] struct {
	simplifyEmptyOrSingular bool
	removeDups              bool
	eq                      func(x, y T) bool
	negator                 Negator[T]
	conjIdentity            Node[T]
	disjIdentity            Node[T]

	children []Node[T]
}

// NewBuilder creates a Builder with the given options.
func NewBuilder[T any](opts ...BuilderOption[T]) *Builder[T] {
	b := &Builder[T]{}
	for _, opt := range opts {
		opt(b)
	}
	if b.negator == nil {
		b.negator = NoOpNegator[T]()
	}
	return b
}

// AddAtom appends a leaf to the buffer.
func (b *Builder[T]) AddAtom(expr T) *Builder[T] {
	return b.AddNode(MakeAtom(expr))
}

// AddConjunction builds an AND of the given children (applying this
// builder's simplification policy) and appends it to the buffer.
func (b *Builder[T]) AddConjunction(children ...Node[T]) *Builder[T] {
	if n := b.compose(children, true); n != nil {
		b.children = append(b.children, n)
	}
	return b
}

// AddDisjunction builds an OR of the given children (applying this
// builder's simplification policy) and appends it to the buffer.
func (b *Builder[T]) AddDisjunction(children ...Node[T]) *Builder[T] {
	if n := b.compose(children, false); n != nil {
		b.children = append(b.children, n)
	}
	return b
}

// AddNode appends an already-built sub-expression to the buffer.
func (b *Builder[T]) AddNode(n Node[T]) *Builder[T] {
	if n != nil {
		b.children = append(b.children, n)
	}
	return b
}

// Negate applies the configured Negator to n. With the no-op negator it
// returns n unchanged and false.
func (b *Builder[T]) Negate(n Node[T]) (Node[T], bool) {
	return b.negator(n)
}

// IsEmpty reports whether nothing has been added yet.
func (b *Builder[T]) IsEmpty() bool {
	return len(b.children) == 0
}

// FinishConjunction drains the buffer into an AND node. With
// SimplifyEmptyOrSingular a singleton collapses to its sole child and an
// empty buffer yields the conjunction identity (nil if none was
// configured). The builder is reusable afterwards.
func (b *Builder[T]) FinishConjunction() Node[T] {
	n := b.compose(b.children, true)
	b.children = nil
	return n
}

// FinishDisjunction drains the buffer into an OR node, with the same
// degeneration policy as FinishConjunction.
func (b *Builder[T]) FinishDisjunction() Node[T] {
	n := b.compose(b.children, false)
	b.children = nil
	return n
}

func (b *Builder[T]) compose(children []Node[T], conj bool) Node[T] {
	if b.removeDups {
		children = b.dedup(children)
	}
	if b.simplifyEmptyOrSingular {
		switch len(children) {
		case 0:
			if conj {
				return b.conjIdentity
			}
			return b.disjIdentity
		case 1:
			return children[0]
		}
	}
	out := make([]Node[T], len(children))
	copy(out, children)
	if conj {
		return MakeConjunction(out...)
	}
	return MakeDisjunction(out...)
}

func (b *Builder[T]) dedup(children []Node[T]) []Node[T] {
	out := make([]Node[T], 0, len(children))
	for _, c := range children {
		dup := false
		for _, kept := range out {
			if Equal(c, kept, b.eq) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}
