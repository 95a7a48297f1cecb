package py

import (
	"reflect"

	"github.com/teranos/pystub/stubtype"
)

func zero[T any]() T {
	var v T
	return v
}

// Py is an owned reference to a T.
type Py[T stubtype.Stub] struct{}

func (Py[T]) TypeInput() stubtype.TypeInfo  { return stubtype.InputOf(zero[T]()) }
func (Py[T]) TypeOutput() stubtype.TypeInfo { return stubtype.OutputOf(zero[T]()) }
func (Py[T]) TypeArgs() []reflect.Type      { return []reflect.Type{reflect.TypeFor[T]()} }

// Bound is a reference to a T tied to the interpreter lock.
type Bound[T stubtype.Stub] struct{}

func (Bound[T]) TypeInput() stubtype.TypeInfo  { return stubtype.InputOf(zero[T]()) }
func (Bound[T]) TypeOutput() stubtype.TypeInfo { return stubtype.OutputOf(zero[T]()) }
func (Bound[T]) TypeArgs() []reflect.Type      { return []reflect.Type{reflect.TypeFor[T]()} }

// Ref is a shared borrow of a class instance.
type Ref[T stubtype.Stub] struct{}

func (Ref[T]) TypeInput() stubtype.TypeInfo  { return stubtype.InputOf(zero[T]()) }
func (Ref[T]) TypeOutput() stubtype.TypeInfo { return stubtype.OutputOf(zero[T]()) }
func (Ref[T]) TypeArgs() []reflect.Type      { return []reflect.Type{reflect.TypeFor[T]()} }

// Mutable is satisfied by classes that are not frozen. Embed Unfrozen in a
// class to allow RefMut over it.
type Mutable interface {
	stubtype.Stub
	MutableClass()
}

// Unfrozen marks a class as mutable.
type Unfrozen struct{}

// MutableClass implements Mutable.
func (Unfrozen) MutableClass() {}

// RefMut is an exclusive borrow. It only compiles for classes that are not
// frozen, so a mutable reference never appears over a frozen value.
type RefMut[T Mutable] struct{}

func (RefMut[T]) TypeInput() stubtype.TypeInfo  { return stubtype.InputOf(zero[T]()) }
func (RefMut[T]) TypeOutput() stubtype.TypeInfo { return stubtype.OutputOf(zero[T]()) }
func (RefMut[T]) TypeArgs() []reflect.Type      { return []reflect.Type{reflect.TypeFor[T]()} }

// Optional is T or None.
type Optional[T stubtype.Stub] struct{}

func (Optional[T]) TypeInput() stubtype.TypeInfo {
	return stubtype.Optional(stubtype.InputOf(zero[T]()))
}

func (Optional[T]) TypeOutput() stubtype.TypeInfo {
	return stubtype.Optional(stubtype.OutputOf(zero[T]()))
}

func (Optional[T]) TypeArgs() []reflect.Type { return []reflect.Type{reflect.TypeFor[T]()} }

// Seq is a homogeneous sequence: it accepts any collections.abc.Sequence and
// returns a list.
type Seq[T stubtype.Stub] struct{}

func (Seq[T]) TypeInput() stubtype.TypeInfo {
	return stubtype.SequenceOf(stubtype.Input, stubtype.InputOf(zero[T]()), stubtype.PolicyAbstract)
}

func (Seq[T]) TypeOutput() stubtype.TypeInfo {
	return stubtype.SequenceOf(stubtype.Output, stubtype.OutputOf(zero[T]()), stubtype.PolicyAbstract)
}

func (Seq[T]) TypeArgs() []reflect.Type { return []reflect.Type{reflect.TypeFor[T]()} }

// Map is a mapping: it accepts any collections.abc.Mapping and returns a dict.
type Map[K, V stubtype.Stub] struct{}

func (Map[K, V]) TypeInput() stubtype.TypeInfo {
	return stubtype.MappingOf(stubtype.Input, stubtype.InputOf(zero[K]()), stubtype.InputOf(zero[V]()), stubtype.PolicyAbstract)
}

func (Map[K, V]) TypeOutput() stubtype.TypeInfo {
	return stubtype.MappingOf(stubtype.Output, stubtype.OutputOf(zero[K]()), stubtype.OutputOf(zero[V]()), stubtype.PolicyAbstract)
}

func (Map[K, V]) TypeArgs() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[K](), reflect.TypeFor[V]()}
}
