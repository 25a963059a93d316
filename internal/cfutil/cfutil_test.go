package cfutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benaskins/credkeep/internal/native"
)

// recorder logs the order in which references are released.
type recorder struct {
	*native.Memory
	released []native.Ref
}

func (r *recorder) Release(ref native.Ref) {
	r.released = append(r.released, ref)
	r.Memory.Release(ref)
}

func TestStringFromCF(t *testing.T) {
	m := native.NewMemory()
	for _, want := range []string{"", "fancy-service", "pässwörd ✓"} {
		scope := NewScope(m)
		got := StringFromCF(m, scope.StringView(want))
		scope.Close()
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 0, m.Live())
}

func TestStringFromCFNullPanics(t *testing.T) {
	m := native.NewMemory()
	assert.Panics(t, func() { StringFromCF(m, Borrowed{}) })
	assert.Panics(t, func() { BytesFromCF(m, Borrowed{}) })
}

func TestBytesFromCFCopies(t *testing.T) {
	m := native.NewMemory()
	scope := NewScope(m)
	str := scope.StringView("secret")
	ext := scope.Adopt(m.CreateExternalRepresentation(str.Ref()))

	got := BytesFromCF(m, ext)
	scope.Close()

	assert.Equal(t, "secret", string(got), "copy survives the freed CFData")
	assert.Equal(t, 0, m.Live())
}

func TestOwnedReleaseOnce(t *testing.T) {
	m := native.NewMemory()
	o := Own(m, m.CopyErrorMessage(native.StatusParam))
	o.Release()
	assert.NotPanics(t, o.Release)

	created, freed := m.Stats()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, freed)
}

func TestOwnNullPanics(t *testing.T) {
	assert.Panics(t, func() { Own(native.NewMemory(), native.Null) })
}

func TestScopeReleasesNewestFirst(t *testing.T) {
	r := &recorder{Memory: native.NewMemory()}
	scope := NewScope(r)
	a := scope.StringView("a")
	b := scope.DataView([]byte("b"))
	c := scope.Dictionary(Pair{Key: Constant(r, native.AttrService), Value: a})
	scope.Close()

	require.Len(t, r.released, 3)
	assert.Equal(t, []native.Ref{c.Ref(), b.Ref(), a.Ref()}, r.released)
	assert.Equal(t, 0, r.Live())

	scope.Close()
	assert.Len(t, r.released, 3, "second Close releases nothing")
}

func TestScopeReleasesOnPanic(t *testing.T) {
	m := native.NewMemory()
	assert.Panics(t, func() {
		scope := NewScope(m)
		defer scope.Close()
		scope.StringView("fine")
		scope.DataView([]byte("also fine"))
		scope.StringView("\xff\xfe")
	})
	assert.Equal(t, 0, m.Live())
}

func TestDictionaryValueIsBorrowed(t *testing.T) {
	m := native.NewMemory()
	scope := NewScope(m)
	account := scope.StringView("user")
	dict := scope.Dictionary(
		Pair{Key: Constant(m, native.Class), Value: Constant(m, native.ClassGenericPassword)},
		Pair{Key: Constant(m, native.AttrAccount), Value: account},
	)

	got := DictionaryValue(m, dict, Constant(m, native.AttrAccount))
	assert.Equal(t, "user", StringFromCF(m, got))
	assert.True(t, DictionaryValue(m, dict, Constant(m, native.ValueData)).IsNull())

	scope.Close()
	created, freed := m.Stats()
	assert.Equal(t, created, freed)
}

func TestNewDictionaryKeepsCallerReferences(t *testing.T) {
	m := native.NewMemory()
	svc := Own(m, m.CreateStringNoCopy([]byte("svc")))
	dict := NewDictionary(m, Pair{Key: Constant(m, native.AttrService), Value: svc.Borrow()})

	svc.Release()
	got := DictionaryValue(m, dict.Borrow(), Constant(m, native.AttrService))
	assert.Equal(t, "svc", StringFromCF(m, got), "dictionary keeps its own retain")

	dict.Release()
	assert.Equal(t, 0, m.Live())
}
