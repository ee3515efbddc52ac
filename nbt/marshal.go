package nbt

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"reflect"
	"sort"
)

// Marshal writes v to w as an unnamed root compound.
func Marshal(w io.Writer, v interface{}) error {
	return NewEncoder(w).Encode(v)
}

// Encoder writes Go values as NBT. Structs and string-keyed maps become
// compounds, []byte/[]int32/[]int64 become the matching array tags and every
// other slice becomes a list. Nil slices inside a compound are left out.
type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

func (e *Encoder) Encode(v interface{}) error {
	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if k := val.Kind(); k != reflect.Struct && k != reflect.Map {
		return errors.New("nbt: root must be a compound, got " + k.String())
	}
	if err := e.marshal(val, ""); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *Encoder) marshal(val reflect.Value, name string) error {
	tagType, err := tagTypeOf(val.Type())
	if err != nil {
		return errors.New("nbt: " + err.Error() + " for " + name)
	}
	if err = e.w.WriteByte(tagType); err != nil {
		return err
	}
	if err = e.writeString(name); err != nil {
		return err
	}
	return e.payload(val, tagType)
}

func (e *Encoder) payload(val reflect.Value, tagType byte) error {
	switch tagType {
	case TagByte:
		if val.Kind() == reflect.Bool {
			if val.Bool() {
				return e.w.WriteByte(1)
			}
			return e.w.WriteByte(0)
		}
		return e.w.WriteByte(byte(intOf(val)))
	case TagShort:
		return e.write(int16(intOf(val)))
	case TagInt:
		return e.write(int32(intOf(val)))
	case TagLong:
		return e.write(intOf(val))
	case TagFloat:
		return e.write(math.Float32bits(float32(val.Float())))
	case TagDouble:
		return e.write(math.Float64bits(val.Float()))
	case TagString:
		return e.writeString(val.String())
	case TagByteArray:
		if err := e.write(int32(val.Len())); err != nil {
			return err
		}
		if val.Kind() == reflect.Slice {
			_, err := e.w.Write(val.Bytes())
			return err
		}
		for i := 0; i < val.Len(); i++ {
			if err := e.w.WriteByte(byte(val.Index(i).Uint())); err != nil {
				return err
			}
		}
		return nil
	case TagIntArray, TagLongArray:
		if err := e.write(int32(val.Len())); err != nil {
			return err
		}
		elem := TagInt
		if tagType == TagLongArray {
			elem = TagLong
		}
		for i := 0; i < val.Len(); i++ {
			if err := e.payload(val.Index(i), elem); err != nil {
				return err
			}
		}
		return nil
	case TagList:
		return e.list(val)
	case TagCompound:
		if val.Kind() == reflect.Map {
			return e.compoundMap(val)
		}
		return e.compoundStruct(val)
	}
	return errors.New("nbt: unhandled tag type")
}

func (e *Encoder) list(val reflect.Value) error {
	elemType, err := tagTypeOf(val.Type().Elem())
	if err != nil {
		return err
	}
	n := val.Len()
	if n == 0 {
		elemType = TagEnd
	}
	if err = e.w.WriteByte(elemType); err != nil {
		return err
	}
	if err = e.write(int32(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err = e.payload(val.Index(i), elemType); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) compoundStruct(val reflect.Value) error {
	vt := val.Type()
	for i := 0; i < vt.NumField(); i++ {
		f := vt.Field(i)
		name := f.Tag.Get("nbt")
		if f.PkgPath != "" || name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fv := val.Field(i)
		if fv.Kind() == reflect.Slice && fv.IsNil() {
			continue
		}
		if err := e.marshal(fv, name); err != nil {
			return err
		}
	}
	return e.w.WriteByte(TagEnd)
}

func (e *Encoder) compoundMap(val reflect.Value) error {
	keys := make([]string, 0, val.Len())
	for _, k := range val.MapKeys() {
		keys = append(keys, k.String())
	}
	// Stable output keeps fixtures byte-identical between runs.
	sort.Strings(keys)
	for _, k := range keys {
		v := val.MapIndex(reflect.ValueOf(k).Convert(val.Type().Key()))
		for v.Kind() == reflect.Interface {
			v = v.Elem()
		}
		if err := e.marshal(v, k); err != nil {
			return err
		}
	}
	return e.w.WriteByte(TagEnd)
}

func (e *Encoder) writeString(s string) error {
	if err := e.write(uint16(len(s))); err != nil {
		return err
	}
	_, err := e.w.WriteString(s)
	return err
}

func (e *Encoder) write(v interface{}) error {
	return binary.Write(e.w, binary.BigEndian, v)
}

func intOf(val reflect.Value) int64 {
	switch val.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return int64(val.Uint())
	}
	return val.Int()
}

func tagTypeOf(t reflect.Type) (byte, error) {
	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return TagByte, nil
	case reflect.Int16, reflect.Uint16:
		return TagShort, nil
	case reflect.Int32, reflect.Uint32, reflect.Int:
		return TagInt, nil
	case reflect.Int64, reflect.Uint64:
		return TagLong, nil
	case reflect.Float32:
		return TagFloat, nil
	case reflect.Float64:
		return TagDouble, nil
	case reflect.String:
		return TagString, nil
	case reflect.Struct:
		return TagCompound, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return 0, errors.New("map key must be a string, got " + t.Key().String())
		}
		return TagCompound, nil
	case reflect.Slice, reflect.Array:
		switch t.Elem().Kind() {
		case reflect.Uint8:
			return TagByteArray, nil
		case reflect.Int32:
			return TagIntArray, nil
		case reflect.Int64:
			return TagLongArray, nil
		}
		return TagList, nil
	}
	return 0, errors.New("unknown type " + t.String())
}
