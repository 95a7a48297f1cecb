package registry

import (
	"reflect"
	"strings"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/stubtype"
)

var (
	stubInterface  = reflect.TypeFor[stubtype.Stub]()
	errorInterface = reflect.TypeFor[error]()
)

// Parameterized is implemented by generic Stub types whose annotation is
// built from their type arguments. ResolveType resolves the arguments first,
// so capability gates apply to wrapped types as well.
type Parameterized interface {
	TypeArgs() []reflect.Type
}

// ResolveType resolves a Go type for pos. Resolution order: declared classes,
// registry names, the type's own Stub implementation, then its structure.
func (r *Resolver) ResolveType(t reflect.Type, pos stubtype.Position) (stubtype.TypeInfo, error) {
	return r.resolveReflect(t, pos, make(map[reflect.Type]bool))
}

func (r *Resolver) goClass(t reflect.Type) (ClassDecl, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.goTypes[t]
	return c, ok
}

func (r *Resolver) resolveReflect(t reflect.Type, pos stubtype.Position, visiting map[reflect.Type]bool) (stubtype.TypeInfo, error) {
	if t == nil {
		return stubtype.TypeInfo{}, errors.NewUnmappedTypeError("<nil>")
	}
	if c, ok := r.goClass(t); ok {
		return stubtype.ClassRef(c.Module, c.Name), nil
	}
	if t.Name() != "" && r.reg.Has(t.String()) {
		return r.lookup(t.String(), pos)
	}
	if s, ok := stubOf(t); ok {
		if p, ok := s.(Parameterized); ok {
			for _, arg := range p.TypeArgs() {
				if _, err := r.resolveReflect(arg, pos, visiting); err != nil {
					return stubtype.TypeInfo{}, errors.Wrapf(err, "%s", t)
				}
			}
		}
		return stubtype.At(s, pos), nil
	}

	if visiting[t] {
		return stubtype.TypeInfo{}, errors.WithHintf(errors.NewUnmappedTypeError(t.String()),
			"%s refers to itself; declare it as a class so references resolve to its name", t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	switch t.Kind() {
	case reflect.Pointer:
		return r.resolveReflect(t.Elem(), pos, visiting)

	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return r.lookup("[]byte", pos)
		}
		elem, err := r.resolveReflect(t.Elem(), pos, visiting)
		if err != nil {
			return stubtype.TypeInfo{}, err
		}
		if t.Kind() == reflect.Array {
			return repeatTuple(elem, t.Len()), nil
		}
		return stubtype.SequenceOf(pos, elem, r.policy), nil

	case reflect.Map:
		key, err := r.resolveReflect(t.Key(), pos, visiting)
		if err != nil {
			return stubtype.TypeInfo{}, err
		}
		if t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0 {
			return stubtype.SetOf(pos, key, r.policy), nil
		}
		value, err := r.resolveReflect(t.Elem(), pos, visiting)
		if err != nil {
			return stubtype.TypeInfo{}, err
		}
		return stubtype.MappingOf(pos, key, value, r.policy), nil

	case reflect.Interface:
		if t.NumMethod() == 0 {
			return r.lookup("any", pos)
		}

	case reflect.Func:
		return r.resolveReflectFunc(t, pos, visiting)

	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		// Named basic types (type Celsius float64) map like their kind.
		return r.lookup(t.Kind().String(), pos)
	}

	return stubtype.TypeInfo{}, errors.NewUnmappedTypeError(t.String())
}

// stubOf returns t's own Stub implementation, on a value or pointer receiver.
func stubOf(t reflect.Type) (stubtype.Stub, bool) {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		return nil, false
	}
	if t.Implements(stubInterface) {
		s, ok := reflect.Zero(t).Interface().(stubtype.Stub)
		return s, ok
	}
	if reflect.PointerTo(t).Implements(stubInterface) {
		s, ok := reflect.New(t).Interface().(stubtype.Stub)
		return s, ok
	}
	return nil, false
}

func (r *Resolver) resolveReflectFunc(t reflect.Type, pos stubtype.Position, visiting map[reflect.Type]bool) (stubtype.TypeInfo, error) {
	if t.PkgPath() == "iter" && t.NumIn() == 1 {
		yield := t.In(0)
		elems := make([]stubtype.TypeInfo, yield.NumIn())
		for i := range elems {
			info, err := r.resolveReflect(yield.In(i), pos, visiting)
			if err != nil {
				return stubtype.TypeInfo{}, err
			}
			elems[i] = info
		}
		switch {
		case strings.HasPrefix(t.Name(), "Seq2[") && len(elems) == 2:
			return stubtype.IteratorOf(stubtype.TupleOf(elems...)), nil
		case strings.HasPrefix(t.Name(), "Seq[") && len(elems) == 1:
			return stubtype.IteratorOf(elems[0]), nil
		}
	}

	params := make([]stubtype.TypeInfo, t.NumIn())
	for i := range params {
		info, err := r.resolveReflect(t.In(i), flip(pos), visiting)
		if err != nil {
			return stubtype.TypeInfo{}, err
		}
		params[i] = info
	}
	var results []stubtype.TypeInfo
	for i := 0; i < t.NumOut(); i++ {
		out := t.Out(i)
		if i == t.NumOut()-1 && out == errorInterface {
			break
		}
		info, err := r.resolveReflect(out, pos, visiting)
		if err != nil {
			return stubtype.TypeInfo{}, err
		}
		results = append(results, info)
	}
	return stubtype.CallableOf(params, resultType(results)), nil
}
