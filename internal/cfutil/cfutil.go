// Package cfutil converts between Go values and CoreFoundation objects and
// keeps track of who owns each reference.
//
// An *Owned carries a retain count this process must drop. A Borrowed is a
// reference someone else owns: a static constant, a value read out of a
// dictionary, or an object a Scope is holding. Borrowed has no Release
// method, so a field read out of a result dictionary cannot be released on
// its own.
package cfutil

import (
	"bytes"
	"runtime"

	"github.com/benaskins/credkeep/internal/native"
)

// Borrowed is a reference owned elsewhere. It is valid only while its owner
// is alive.
type Borrowed struct {
	ref native.Ref
}

// Ref returns the raw reference.
func (b Borrowed) Ref() native.Ref { return b.ref }

// IsNull reports whether b is NULL.
func (b Borrowed) IsNull() bool { return b.ref == native.Null }

// Owned is a reference with a +1 retain count.
type Owned struct {
	api    native.API
	ref    native.Ref
	pinner *runtime.Pinner
}

// Own takes ownership of ref, which must come from a Create or Copy call.
// Panics if ref is NULL.
func Own(api native.API, ref native.Ref) *Owned {
	if ref == native.Null {
		panic("cfutil: cannot own a NULL reference")
	}
	return &Owned{api: api, ref: ref}
}

// Borrow returns a view of o that is valid until o is released.
func (o *Owned) Borrow() Borrowed { return Borrowed{ref: o.ref} }

// Release drops the retain count and unpins any Go memory the object was
// viewing. Later calls do nothing.
func (o *Owned) Release() {
	if o.ref == native.Null {
		return
	}
	o.api.Release(o.ref)
	o.ref = native.Null
	if o.pinner != nil {
		o.pinner.Unpin()
		o.pinner = nil
	}
}

// Pair is one key/value entry of a dictionary.
type Pair struct {
	Key   Borrowed
	Value Borrowed
}

// Constant returns a static framework value.
func Constant(api native.API, c native.Constant) Borrowed {
	return Borrowed{ref: api.Constant(c)}
}

// StringFromCF copies a CFString into a Go string via its UTF-8 external
// representation. Panics if s is NULL.
func StringFromCF(api native.API, s Borrowed) string {
	if s.IsNull() {
		panic("cfutil: StringFromCF on NULL string")
	}
	ext := Own(api, api.CreateExternalRepresentation(s.ref))
	defer ext.Release()
	return string(api.DataBytes(ext.ref))
}

// BytesFromCF copies the contents of a CFData. It does not release d.
// Panics if d is NULL.
func BytesFromCF(api native.API, d Borrowed) []byte {
	if d.IsNull() {
		panic("cfutil: BytesFromCF on NULL data")
	}
	return bytes.Clone(api.DataBytes(d.ref))
}

// NewDictionary builds a CFDictionary from pairs, in order. The dictionary
// retains its own references, so the caller still releases whatever it
// passed in, and must release the dictionary.
func NewDictionary(api native.API, pairs ...Pair) *Owned {
	keys := make([]native.Ref, len(pairs))
	values := make([]native.Ref, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key.ref
		values[i] = p.Value.ref
	}
	return Own(api, api.CreateDictionary(keys, values))
}

// DictionaryValue looks up key in d. The result is owned by d.
func DictionaryValue(api native.API, d, key Borrowed) Borrowed {
	return Borrowed{ref: api.DictionaryValue(d.ref, key.ref)}
}
