//go:build darwin

package native

/*
#cgo LDFLAGS: -framework CoreFoundation -framework Security
#include <CoreFoundation/CoreFoundation.h>
#include <Security/Security.h>

// CFDictionaryGetValue takes the key as const void*, which cgo exposes as
// unsafe.Pointer while CFTypeRef is a uintptr. Crossing here keeps the
// conversion on the C side.
static CFTypeRef dictionaryValue(CFDictionaryRef d, CFTypeRef key) {
	return CFDictionaryGetValue(d, key);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

type system struct{}

// System returns the Security.framework implementation of API.
func System() API {
	return system{}
}

func (system) Constant(c Constant) Ref {
	switch c {
	case Class:
		return Ref(C.kSecClass)
	case ClassGenericPassword:
		return Ref(C.kSecClassGenericPassword)
	case AttrService:
		return Ref(C.kSecAttrService)
	case AttrAccount:
		return Ref(C.kSecAttrAccount)
	case ValueData:
		return Ref(C.kSecValueData)
	case MatchLimit:
		return Ref(C.kSecMatchLimit)
	case MatchLimitOne:
		return Ref(C.kSecMatchLimitOne)
	case ReturnAttributes:
		return Ref(C.kSecReturnAttributes)
	case ReturnData:
		return Ref(C.kSecReturnData)
	case BooleanTrue:
		return Ref(C.kCFBooleanTrue)
	}
	panic(fmt.Sprintf("native: unknown constant %d", int(c)))
}

func (system) CreateStringNoCopy(b []byte) Ref {
	if len(b) == 0 {
		return Ref(C.CFStringCreateWithBytes(C.kCFAllocatorDefault, nil, 0, C.kCFStringEncodingUTF8, C.Boolean(0)))
	}
	return Ref(C.CFStringCreateWithBytesNoCopy(
		C.kCFAllocatorDefault,
		(*C.UInt8)(unsafe.Pointer(&b[0])),
		C.CFIndex(len(b)),
		C.kCFStringEncodingUTF8,
		C.Boolean(0),
		C.kCFAllocatorNull,
	))
}

func (system) CreateDataNoCopy(b []byte) Ref {
	if len(b) == 0 {
		return Ref(C.CFDataCreate(C.kCFAllocatorDefault, nil, 0))
	}
	return Ref(C.CFDataCreateWithBytesNoCopy(
		C.kCFAllocatorDefault,
		(*C.UInt8)(unsafe.Pointer(&b[0])),
		C.CFIndex(len(b)),
		C.kCFAllocatorNull,
	))
}

func (system) CreateExternalRepresentation(s Ref) Ref {
	return Ref(C.CFStringCreateExternalRepresentation(C.kCFAllocatorDefault, C.CFStringRef(s), C.kCFStringEncodingUTF8, 0))
}

func (system) DataBytes(d Ref) []byte {
	n := int(C.CFDataGetLength(C.CFDataRef(d)))
	if n == 0 {
		return nil
	}
	p := C.CFDataGetBytePtr(C.CFDataRef(d))
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

func (system) CreateDictionary(keys, values []Ref) Ref {
	if len(keys) != len(values) {
		panic("native: dictionary keys and values differ in length")
	}
	n := len(keys)
	cfKeys := make([]C.CFTypeRef, n)
	cfValues := make([]C.CFTypeRef, n)
	for i := range keys {
		cfKeys[i] = C.CFTypeRef(keys[i])
		cfValues[i] = C.CFTypeRef(values[i])
	}

	var keysPointer, valuesPointer *unsafe.Pointer
	if n > 0 {
		keysPointer = (*unsafe.Pointer)(unsafe.Pointer(&cfKeys[0]))
		valuesPointer = (*unsafe.Pointer)(unsafe.Pointer(&cfValues[0]))
	}
	return Ref(C.CFDictionaryCreate(
		C.kCFAllocatorDefault,
		keysPointer,
		valuesPointer,
		C.CFIndex(n),
		&C.kCFTypeDictionaryKeyCallBacks,
		&C.kCFTypeDictionaryValueCallBacks,
	))
}

func (system) DictionaryValue(d, key Ref) Ref {
	return Ref(C.dictionaryValue(C.CFDictionaryRef(d), C.CFTypeRef(key)))
}

func (system) Release(r Ref) {
	C.CFRelease(C.CFTypeRef(r))
}

func (system) ItemAdd(attributes Ref) Status {
	return Status(C.SecItemAdd(C.CFDictionaryRef(attributes), nil))
}

func (system) ItemDelete(query Ref) Status {
	return Status(C.SecItemDelete(C.CFDictionaryRef(query)))
}

func (system) ItemCopyMatching(query Ref) (Status, Ref) {
	var result C.CFTypeRef
	status := C.SecItemCopyMatching(C.CFDictionaryRef(query), &result)
	return Status(status), Ref(result)
}

func (system) CopyErrorMessage(status Status) Ref {
	return Ref(C.SecCopyErrorMessageString(C.OSStatus(status), nil))
}
