package gnats

import (
	"fmt"
	"time"
)

// ValueType tags a parsed JSON value. Numbers carry a secondary tag
// (TypeInt, TypeUint or TypeDouble) recording how the literal was classified,
// so consumers get a coercion-free read or an explicit mismatch.
type ValueType int

const (
	TypeNotSet ValueType = iota
	TypeStr
	TypeBool
	TypeNum
	TypeInt
	TypeUint
	TypeDouble
	TypeArray
	TypeObject
	TypeNull
)

func (t ValueType) String() string {
	switch t {
	case TypeStr:
		return "string"
	case TypeBool:
		return "bool"
	case TypeNum:
		return "number"
	case TypeInt:
		return "int"
	case TypeUint:
		return "uint"
	case TypeDouble:
		return "double"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	case TypeNull:
		return "null"
	default:
		return "unset"
	}
}

// JSON is a parsed document: an object with named fields, or an array.
// Exactly one of fields/array is set. All nodes of the tree live with the
// pool that backed the parse; teardown is releasing that pool.
type JSON struct {
	fields *StrHash[*Field]
	array  *Array
	pool   *Pool
}

// IsArray reports whether the document is an array rather than an object.
func (j *JSON) IsArray() bool { return j.array != nil }

// Array returns the document's array, nil for objects.
func (j *JSON) Array() *Array { return j.array }

// Count returns the number of fields (objects) or elements (arrays).
func (j *JSON) Count() int {
	if j.array != nil {
		return j.array.Len()
	}
	return j.fields.Count()
}

// Array is a homogeneous JSON array: the first element fixes the element
// type and every later element must match.
type Array struct {
	typ   ValueType
	elems []*Field
}

func (a *Array) Len() int { return len(a.elems) }

// Type returns the element type; TypeNull for an empty array.
func (a *Array) Type() ValueType { return a.typ }

// Elem returns the i-th element.
func (a *Array) Elem(i int) *Field { return a.elems[i] }

func (a *Array) append(f *Field) error {
	if a.typ == TypeNotSet {
		a.typ = f.typ
	}
	if a.typ != f.typ || a.typ == TypeNull {
		return fmt.Errorf("%w: array content of different types '%s'", ErrTypeMismatch, f.Name)
	}
	if a.elems == nil {
		a.elems = make([]*Field, 0, 8)
	}
	a.elems = append(a.elems, f)
	return nil
}

// Field is one tagged value: a named member of an object, or an element of
// an array (elements share the placeholder name "array").
type Field struct {
	Name   string
	typ    ValueType
	numTyp ValueType

	str string
	b   bool
	i   int64
	u   uint64
	f   float64
	arr *Array
	obj *JSON
}

// Type returns the value tag.
func (f *Field) Type() ValueType { return f.typ }

// NumType returns the numeric classification for TypeNum fields.
func (f *Field) NumType() ValueType { return f.numTyp }

func (f *Field) StrValue() (string, error) {
	if f.typ != TypeStr {
		return "", fmt.Errorf("%w: field '%s' is %s, not string", ErrTypeMismatch, f.Name, f.typ)
	}
	return f.str, nil
}

func (f *Field) BoolValue() (bool, error) {
	if f.typ != TypeBool {
		return false, fmt.Errorf("%w: field '%s' is %s, not bool", ErrTypeMismatch, f.Name, f.typ)
	}
	return f.b, nil
}

// IntValue reads any numeric field as int64.
func (f *Field) IntValue() (int64, error) {
	if f.typ != TypeNum {
		return 0, fmt.Errorf("%w: field '%s' is %s, not number", ErrTypeMismatch, f.Name, f.typ)
	}
	switch f.numTyp {
	case TypeInt:
		return f.i, nil
	case TypeUint:
		return int64(f.u), nil
	default:
		return int64(f.f), nil
	}
}

// UintValue reads any numeric field as uint64.
func (f *Field) UintValue() (uint64, error) {
	if f.typ != TypeNum {
		return 0, fmt.Errorf("%w: field '%s' is %s, not number", ErrTypeMismatch, f.Name, f.typ)
	}
	switch f.numTyp {
	case TypeInt:
		return uint64(f.i), nil
	case TypeUint:
		return f.u, nil
	default:
		return uint64(f.f), nil
	}
}

// DoubleValue reads any numeric field as float64.
func (f *Field) DoubleValue() (float64, error) {
	if f.typ != TypeNum {
		return 0, fmt.Errorf("%w: field '%s' is %s, not number", ErrTypeMismatch, f.Name, f.typ)
	}
	switch f.numTyp {
	case TypeInt:
		return float64(f.i), nil
	case TypeUint:
		return float64(f.u), nil
	default:
		return f.f, nil
	}
}

func (f *Field) ArrayValue() (*Array, error) {
	if f.typ != TypeArray {
		return nil, fmt.Errorf("%w: field '%s' is %s, not array", ErrTypeMismatch, f.Name, f.typ)
	}
	return f.arr, nil
}

func (f *Field) ObjectValue() (*JSON, error) {
	if f.typ != TypeObject {
		return nil, fmt.Errorf("%w: field '%s' is %s, not object", ErrTypeMismatch, f.Name, f.typ)
	}
	return f.obj, nil
}

// refField looks a field up and checks its parsed type against the one the
// caller wants. A missing field, or an explicit null, yields (nil, nil): the
// caller keeps its zero value.
func (j *JSON) refField(name string, want ValueType) (*Field, error) {
	if j == nil || j.fields == nil {
		return nil, nil
	}
	f, ok := j.fields.Get(name)
	if !ok || f.typ == TypeNull {
		return nil, nil
	}
	switch want {
	case TypeInt, TypeUint, TypeDouble:
		if f.typ != TypeNum {
			return nil, fmt.Errorf("%w: asked for field '%s' as %s, parsed as %s", ErrTypeMismatch, name, want, f.typ)
		}
	default:
		if f.typ != want {
			return nil, fmt.Errorf("%w: asked for field '%s' as %s, parsed as %s", ErrTypeMismatch, name, want, f.typ)
		}
	}
	return f, nil
}

// GetString returns the named string field, "" when absent or null.
func (j *JSON) GetString(name string) (string, error) {
	f, err := j.refField(name, TypeStr)
	if f == nil || err != nil {
		return "", err
	}
	return f.str, nil
}

// GetInt returns the named numeric field as int64, 0 when absent.
func (j *JSON) GetInt(name string) (int64, error) {
	f, err := j.refField(name, TypeInt)
	if f == nil || err != nil {
		return 0, err
	}
	return f.IntValue()
}

// GetUint returns the named numeric field as uint64, 0 when absent.
func (j *JSON) GetUint(name string) (uint64, error) {
	f, err := j.refField(name, TypeUint)
	if f == nil || err != nil {
		return 0, err
	}
	return f.UintValue()
}

// GetDouble returns the named numeric field as float64, 0 when absent.
func (j *JSON) GetDouble(name string) (float64, error) {
	f, err := j.refField(name, TypeDouble)
	if f == nil || err != nil {
		return 0, err
	}
	return f.DoubleValue()
}

// GetBool returns the named bool field, false when absent.
func (j *JSON) GetBool(name string) (bool, error) {
	f, err := j.refField(name, TypeBool)
	if f == nil || err != nil {
		return false, err
	}
	return f.b, nil
}

// GetObject returns the named object field, nil when absent.
func (j *JSON) GetObject(name string) (*JSON, error) {
	f, err := j.refField(name, TypeObject)
	if f == nil || err != nil {
		return nil, err
	}
	return f.obj, nil
}

// GetTime parses the named string field as an RFC3339 timestamp.
func (j *JSON) GetTime(name string) (time.Time, error) {
	s, err := j.GetString(name)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

func (j *JSON) refArray(name string, want ValueType) (*Array, error) {
	f, err := j.refField(name, TypeArray)
	if f == nil || err != nil {
		return nil, err
	}
	if f.arr.typ != want && f.arr.Len() > 0 {
		return nil, fmt.Errorf("%w: asked for array '%s' of %s, parsed as %s", ErrTypeMismatch, name, want, f.arr.typ)
	}
	return f.arr, nil
}

// GetStringArray returns the named array of strings, nil when absent.
func (j *JSON) GetStringArray(name string) ([]string, error) {
	arr, err := j.refArray(name, TypeStr)
	if arr == nil || err != nil {
		return nil, err
	}
	out := make([]string, arr.Len())
	for i, e := range arr.elems {
		out[i] = e.str
	}
	return out, nil
}

// GetLongArray returns the named numeric array as int64s, nil when absent.
func (j *JSON) GetLongArray(name string) ([]int64, error) {
	arr, err := j.refArray(name, TypeNum)
	if arr == nil || err != nil {
		return nil, err
	}
	out := make([]int64, arr.Len())
	for i, e := range arr.elems {
		v, err := e.IntValue()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// GetBoolArray returns the named array of bools, nil when absent.
func (j *JSON) GetBoolArray(name string) ([]bool, error) {
	arr, err := j.refArray(name, TypeBool)
	if arr == nil || err != nil {
		return nil, err
	}
	out := make([]bool, arr.Len())
	for i, e := range arr.elems {
		out[i] = e.b
	}
	return out, nil
}

// GetObjectArray returns the named array of objects, nil when absent.
func (j *JSON) GetObjectArray(name string) ([]*JSON, error) {
	arr, err := j.refArray(name, TypeObject)
	if arr == nil || err != nil {
		return nil, err
	}
	out := make([]*JSON, arr.Len())
	for i, e := range arr.elems {
		out[i] = e.obj
	}
	return out, nil
}

// Range calls cb for every field of an object, in no particular order. The
// table cannot resize during the walk.
func (j *JSON) Range(cb func(name string, f *Field) error) error {
	if j == nil || j.fields == nil {
		return nil
	}
	it := j.fields.Iter()
	defer it.Done()
	for {
		name, f, ok := it.Next()
		if !ok {
			return nil
		}
		if err := cb(name, f); err != nil {
			return err
		}
	}
}
