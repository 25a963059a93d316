package native

import (
	"bytes"
	"fmt"
	"sync"
	"unicode/utf8"
)

type kind int

const (
	kindString kind = iota + 1
	kindData
	kindDictionary
	kindBoolean
)

type object struct {
	kind   kind
	refs   int
	static bool
	// aliased is set for NoCopy objects whose bytes belong to the caller.
	aliased bool
	bytes   []byte
	keys    []Ref
	values  []Ref
}

type item struct {
	service string
	account string
	data    []byte
}

// poison overwrites the bytes of a freed CFData so that anything still
// reading through a stale DataBytes slice sees garbage.
const poison = 0xdd

// Memory is an in-process implementation of API. It keeps generic password
// items in a slice and tracks every object it hands out, so tests can check
// that each created object is freed exactly once.
//
// Releasing a freed or static reference panics.
type Memory struct {
	mu        sync.Mutex
	next      Ref
	objects   map[Ref]*object
	constants map[Constant]Ref
	byRef     map[Ref]Constant
	items     []item
	created   int
	freed     int
	failNext  []Status
}

// NewMemory returns an empty in-memory credential store.
func NewMemory() *Memory {
	m := &Memory{
		next:      0x1000,
		objects:   make(map[Ref]*object),
		constants: make(map[Constant]Ref),
		byRef:     make(map[Ref]Constant),
	}
	for c, name := range constantNames {
		obj := &object{kind: kindString, static: true, bytes: []byte(name)}
		if c == BooleanTrue {
			obj.kind = kindBoolean
		}
		ref := m.insert(obj)
		m.constants[c] = ref
		m.byRef[ref] = c
	}
	return m
}

// FailNext makes the next ItemAdd, ItemDelete or ItemCopyMatching call
// return status without touching the stored items. Calls queue up.
func (m *Memory) FailNext(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = append(m.failNext, status)
}

// Stats returns how many objects have been created and freed.
func (m *Memory) Stats() (created, freed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created, m.freed
}

// Live returns the number of created objects not yet freed.
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created - m.freed
}

// Len returns the number of stored items.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) insert(obj *object) Ref {
	ref := m.next
	m.next += 0x10
	m.objects[ref] = obj
	return ref
}

func (m *Memory) create(obj *object) Ref {
	obj.refs = 1
	m.created++
	return m.insert(obj)
}

func (m *Memory) lookup(r Ref, op string) *object {
	obj, ok := m.objects[r]
	if !ok {
		panic(fmt.Sprintf("native: %s on dead reference %#x", op, uintptr(r)))
	}
	return obj
}

func (m *Memory) Constant(c Constant) Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, ok := m.constants[c]
	if !ok {
		panic(fmt.Sprintf("native: unknown constant %d", int(c)))
	}
	return ref
}

func (m *Memory) CreateStringNoCopy(b []byte) Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !utf8.Valid(b) {
		return Null
	}
	return m.create(&object{kind: kindString, aliased: true, bytes: b})
}

func (m *Memory) CreateDataNoCopy(b []byte) Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(&object{kind: kindData, aliased: true, bytes: b})
}

func (m *Memory) CreateExternalRepresentation(s Ref) Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj := m.lookup(s, "CreateExternalRepresentation")
	if obj.kind != kindString {
		panic("native: CreateExternalRepresentation on non-string")
	}
	return m.create(&object{kind: kindData, bytes: bytes.Clone(obj.bytes)})
}

func (m *Memory) DataBytes(d Ref) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj := m.lookup(d, "DataBytes")
	if obj.kind != kindData {
		panic("native: DataBytes on non-data")
	}
	return obj.bytes
}

func (m *Memory) CreateDictionary(keys, values []Ref) Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(keys) != len(values) {
		panic("native: dictionary keys and values differ in length")
	}
	for i := range keys {
		m.retain(keys[i])
		m.retain(values[i])
	}
	return m.create(&object{
		kind:   kindDictionary,
		keys:   append([]Ref(nil), keys...),
		values: append([]Ref(nil), values...),
	})
}

func (m *Memory) retain(r Ref) {
	obj := m.lookup(r, "retain")
	if !obj.static {
		obj.refs++
	}
}

func (m *Memory) DictionaryValue(d, key Ref) Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dictionaryValue(d, key)
}

func (m *Memory) dictionaryValue(d, key Ref) Ref {
	obj := m.lookup(d, "DictionaryValue")
	if obj.kind != kindDictionary {
		panic("native: DictionaryValue on non-dictionary")
	}
	want := m.lookup(key, "DictionaryValue")
	for i, k := range obj.keys {
		if k == key {
			return obj.values[i]
		}
		have := m.objects[k]
		if have.kind == kindString && want.kind == kindString && bytes.Equal(have.bytes, want.bytes) {
			return obj.values[i]
		}
	}
	return Null
}

func (m *Memory) Release(r Ref) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release(r)
}

func (m *Memory) release(r Ref) {
	obj := m.lookup(r, "Release")
	if obj.static {
		panic(fmt.Sprintf("native: Release of static constant %s", m.byRef[r]))
	}
	obj.refs--
	if obj.refs > 0 {
		return
	}
	delete(m.objects, r)
	m.freed++
	if obj.kind == kindData && !obj.aliased {
		for i := range obj.bytes {
			obj.bytes[i] = poison
		}
	}
	for i := range obj.keys {
		m.releaseMember(obj.keys[i])
		m.releaseMember(obj.values[i])
	}
}

// releaseMember drops the retain a dictionary holds on a member. Static
// constants were never retained.
func (m *Memory) releaseMember(r Ref) {
	if m.lookup(r, "Release").static {
		return
	}
	m.release(r)
}

// query is a decoded attribute dictionary.
type query map[Constant]*object

func (m *Memory) decode(d Ref) (query, Status) {
	obj := m.lookup(d, "decode")
	if obj.kind != kindDictionary {
		return nil, StatusParam
	}
	q := make(query, len(obj.keys))
	for i, k := range obj.keys {
		c, ok := m.byRef[k]
		if !ok {
			return nil, StatusParam
		}
		q[c] = m.lookup(obj.values[i], "decode")
	}
	class, ok := q[Class]
	if !ok || class != m.objects[m.constants[ClassGenericPassword]] {
		return nil, StatusParam
	}
	return q, StatusSuccess
}

func (q query) text(c Constant) (string, bool) {
	obj, ok := q[c]
	if !ok || obj.kind != kindString {
		return "", false
	}
	return string(obj.bytes), true
}

func (q query) flag(c Constant) bool {
	obj, ok := q[c]
	return ok && obj.kind == kindBoolean
}

func (q query) matches(it item) bool {
	if service, ok := q.text(AttrService); ok && service != it.service {
		return false
	}
	if account, ok := q.text(AttrAccount); ok && account != it.account {
		return false
	}
	return true
}

func (m *Memory) injected() (Status, bool) {
	if len(m.failNext) == 0 {
		return StatusSuccess, false
	}
	status := m.failNext[0]
	m.failNext = m.failNext[1:]
	return status, true
}

func (m *Memory) ItemAdd(attributes Ref) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, status := m.decode(attributes)
	if status != StatusSuccess {
		return status
	}
	if status, ok := m.injected(); ok {
		return status
	}

	service, _ := q.text(AttrService)
	account, _ := q.text(AttrAccount)
	var data []byte
	if obj, ok := q[ValueData]; ok {
		if obj.kind != kindData {
			return StatusParam
		}
		// The NoCopy view dies with the call; the store keeps its own copy.
		data = bytes.Clone(obj.bytes)
	}
	for _, it := range m.items {
		if it.service == service && it.account == account {
			return StatusDuplicateItem
		}
	}
	m.items = append(m.items, item{service: service, account: account, data: data})
	return StatusSuccess
}

func (m *Memory) ItemDelete(query Ref) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, status := m.decode(query)
	if status != StatusSuccess {
		return status
	}
	if status, ok := m.injected(); ok {
		return status
	}

	kept := m.items[:0]
	for _, it := range m.items {
		if !q.matches(it) {
			kept = append(kept, it)
		}
	}
	removed := len(m.items) - len(kept)
	m.items = kept
	if removed == 0 {
		return StatusItemNotFound
	}
	return StatusSuccess
}

func (m *Memory) ItemCopyMatching(query Ref) (Status, Ref) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, status := m.decode(query)
	if status != StatusSuccess {
		return status, Null
	}
	if status, ok := m.injected(); ok {
		return status, Null
	}
	if limit, ok := q[MatchLimit]; ok && limit != m.objects[m.constants[MatchLimitOne]] {
		return StatusParam, Null
	}

	returnAttributes := q.flag(ReturnAttributes)
	returnData := q.flag(ReturnData)
	if !returnAttributes && !returnData {
		return StatusParam, Null
	}

	for _, it := range m.items {
		if !q.matches(it) {
			continue
		}
		if !returnAttributes {
			return StatusSuccess, m.create(&object{kind: kindData, bytes: bytes.Clone(it.data)})
		}
		return StatusSuccess, m.resultDictionary(it, returnData)
	}
	return StatusItemNotFound, Null
}

// resultDictionary builds the attribute dictionary SecItemCopyMatching
// returns. Members are created at +1, retained by the dictionary and then
// released, so the dictionary is their only owner.
func (m *Memory) resultDictionary(it item, withData bool) Ref {
	keys := []Ref{m.constants[Class], m.constants[AttrService], m.constants[AttrAccount]}
	values := []Ref{
		m.constants[ClassGenericPassword],
		m.create(&object{kind: kindString, bytes: []byte(it.service)}),
		m.create(&object{kind: kindString, bytes: []byte(it.account)}),
	}
	if withData {
		keys = append(keys, m.constants[ValueData])
		values = append(values, m.create(&object{kind: kindData, bytes: bytes.Clone(it.data)}))
	}

	for i := range keys {
		m.retain(values[i])
	}
	dict := m.create(&object{kind: kindDictionary, keys: keys, values: values})
	for _, v := range values[1:] {
		m.release(v)
	}
	return dict
}

var statusMessages = map[Status]string{
	StatusSuccess:          "No error.",
	StatusParam:            "One or more parameters passed to a function were not valid.",
	StatusInvalidOwnerEdit: "Invalid attempt to change the owner of this item.",
	StatusAuthFailed:       "The user name or passphrase you entered is not correct.",
	StatusDuplicateItem:    "The specified item already exists in the keychain.",
	StatusItemNotFound:     "The specified item could not be found in the keychain.",
}

func (m *Memory) CopyErrorMessage(status Status) Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := statusMessages[status]
	if !ok {
		msg = fmt.Sprintf("OSStatus %d", int32(status))
	}
	return m.create(&object{kind: kindString, bytes: []byte(msg)})
}
