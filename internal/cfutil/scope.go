package cfutil

import (
	"runtime"
	"unsafe"

	"github.com/benaskins/credkeep/internal/native"
)

// Scope owns every object created through it and releases them all, newest
// first, when Close is called. Callers only ever see Borrowed views, so
// nothing a scope holds can be released twice.
//
//	scope := cfutil.NewScope(api)
//	defer scope.Close()
type Scope struct {
	api   native.API
	owned []*Owned
}

// NewScope returns an empty scope.
func NewScope(api native.API) *Scope {
	return &Scope{api: api}
}

// Close releases everything the scope owns.
func (s *Scope) Close() {
	for i := len(s.owned) - 1; i >= 0; i-- {
		s.owned[i].Release()
	}
	s.owned = nil
}

func (s *Scope) keep(o *Owned) Borrowed {
	s.owned = append(s.owned, o)
	return o.Borrow()
}

// Adopt takes ownership of a +1 reference returned by a Create or Copy call.
// Panics if ref is NULL.
func (s *Scope) Adopt(ref native.Ref) Borrowed {
	return s.keep(Own(s.api, ref))
}

// StringView returns a CFString over str's bytes without copying them. The
// bytes stay pinned until the scope closes. Panics if the string cannot be
// created, which for a valid UTF-8 str means the allocator failed.
func (s *Scope) StringView(str string) Borrowed {
	return s.view(unsafe.Slice(unsafe.StringData(str), len(str)), s.api.CreateStringNoCopy, "CFStringCreateWithBytesNoCopy")
}

// DataView returns a CFData over b without copying it. b stays pinned until
// the scope closes and must not be modified before then.
func (s *Scope) DataView(b []byte) Borrowed {
	return s.view(b, s.api.CreateDataNoCopy, "CFDataCreateWithBytesNoCopy")
}

// DataViewString is DataView over the bytes of str.
func (s *Scope) DataViewString(str string) Borrowed {
	return s.DataView(unsafe.Slice(unsafe.StringData(str), len(str)))
}

func (s *Scope) view(b []byte, create func([]byte) native.Ref, name string) Borrowed {
	var pinner *runtime.Pinner
	if len(b) > 0 {
		pinner = new(runtime.Pinner)
		pinner.Pin(&b[0])
	}
	ref := create(b)
	if ref == native.Null {
		if pinner != nil {
			pinner.Unpin()
		}
		panic("cfutil: " + name + " returned NULL")
	}
	o := Own(s.api, ref)
	o.pinner = pinner
	return s.keep(o)
}

// Dictionary builds a dictionary owned by the scope.
func (s *Scope) Dictionary(pairs ...Pair) Borrowed {
	return s.keep(NewDictionary(s.api, pairs...))
}
