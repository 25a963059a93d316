// Package native is the raw CoreFoundation and Security.framework surface
// used by the credential store.
//
// API mirrors the C entry points one to one and adds no ownership tracking:
// every Ref returned by a Create or Copy method carries a +1 retain count the
// caller must drop with Release exactly once. Refs returned by Constant,
// DictionaryValue and DataBytes are owned by someone else and must never be
// released.
//
// System returns the cgo implementation on darwin. Memory is an in-process
// simulation of the same surface that counts every retain and release.
package native

// Ref is an untyped CoreFoundation reference (CFTypeRef). Zero is NULL.
type Ref uintptr

// Null is the NULL reference.
const Null Ref = 0

// Status is a Security.framework OSStatus.
type Status int32

// Status codes the credential store interprets. Values match SecBase.h.
const (
	StatusSuccess          Status = 0      // errSecSuccess
	StatusParam            Status = -50    // errSecParam
	StatusInvalidOwnerEdit Status = -25244 // errSecInvalidOwnerEdit
	StatusAuthFailed       Status = -25293 // errSecAuthFailed
	StatusDuplicateItem    Status = -25299 // errSecDuplicateItem
	StatusItemNotFound     Status = -25300 // errSecItemNotFound
)

// Constant names a static framework value such as kSecClass.
type Constant int

const (
	Class Constant = iota + 1
	ClassGenericPassword
	AttrService
	AttrAccount
	ValueData
	MatchLimit
	MatchLimitOne
	ReturnAttributes
	ReturnData
	BooleanTrue
)

var constantNames = map[Constant]string{
	Class:                "kSecClass",
	ClassGenericPassword: "kSecClassGenericPassword",
	AttrService:          "kSecAttrService",
	AttrAccount:          "kSecAttrAccount",
	ValueData:            "kSecValueData",
	MatchLimit:           "kSecMatchLimit",
	MatchLimitOne:        "kSecMatchLimitOne",
	ReturnAttributes:     "kSecReturnAttributes",
	ReturnData:           "kSecReturnData",
	BooleanTrue:          "kCFBooleanTrue",
}

func (c Constant) String() string {
	if name, ok := constantNames[c]; ok {
		return name
	}
	return "Constant(?)"
}

// API is the subset of CoreFoundation and Security.framework the credential
// store calls.
type API interface {
	// Constant returns a static framework value. Never released.
	Constant(c Constant) Ref

	// CreateStringNoCopy wraps UTF-8 bytes in a CFString without copying
	// them (CFStringCreateWithBytesNoCopy, kCFAllocatorNull). The bytes must
	// stay valid and unmoved until the string is released. Returns Null for
	// malformed UTF-8.
	CreateStringNoCopy(b []byte) Ref

	// CreateDataNoCopy wraps bytes in a CFData without copying them
	// (CFDataCreateWithBytesNoCopy, kCFAllocatorNull). Same lifetime rule as
	// CreateStringNoCopy.
	CreateDataNoCopy(b []byte) Ref

	// CreateExternalRepresentation returns a new CFData holding the UTF-8
	// encoding of the CFString s.
	CreateExternalRepresentation(s Ref) Ref

	// DataBytes returns the contents of the CFData d. The slice aliases
	// memory owned by d and is invalid once d is released.
	DataBytes(d Ref) []byte

	// CreateDictionary builds a CFDictionary with the CFType callbacks, so
	// the dictionary retains every key and value.
	CreateDictionary(keys, values []Ref) Ref

	// DictionaryValue follows the Get rule: the value is owned by d.
	DictionaryValue(d, key Ref) Ref

	// Release drops one retain count (CFRelease). Releasing Null or an
	// already freed object is undefined.
	Release(r Ref)

	ItemAdd(attributes Ref) Status
	ItemDelete(query Ref) Status
	// ItemCopyMatching returns a +1 result on StatusSuccess and Null
	// otherwise.
	ItemCopyMatching(query Ref) (Status, Ref)
	// CopyErrorMessage returns a new CFString describing status
	// (SecCopyErrorMessageString), or Null when the system has none.
	CopyErrorMessage(status Status) Ref
}
