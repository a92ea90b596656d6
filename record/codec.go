package record

import (
	"fmt"
	"reflect"
)

// Marshal converts a record struct (or pointer to one) into a Row keyed by
// the struct's `db` tags. Nil pointer fields are omitted entirely so the
// table layer can tell "unset" apart from a zero value.
func Marshal(rec any) (Row, error) {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("record: marshal nil %T", rec)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record: marshal non-struct %T", rec)
	}

	row := make(Row, v.NumField())
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		col := t.Field(i).Tag.Get("db")
		if col == "" || col == "-" {
			continue
		}
		f := v.Field(i)
		if f.Kind() == reflect.Pointer {
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		row[col] = f.Interface()
	}
	return row, nil
}

// Unmarshal fills a record struct from a Row. Columns absent from the row
// leave value fields at their zero value and pointer fields nil. Stored
// values are converted to the field's type where the conversion is exact
// (int64 column into an int field and the like).
func Unmarshal(row Row, rec any) error {
	v := reflect.ValueOf(rec)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("record: unmarshal into non-pointer %T", rec)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("record: unmarshal into non-struct %T", rec)
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		col := t.Field(i).Tag.Get("db")
		if col == "" || col == "-" {
			continue
		}
		raw, ok := row[col]
		if !ok || raw == nil {
			continue
		}
		f := v.Field(i)
		if f.Kind() == reflect.Pointer {
			p := reflect.New(f.Type().Elem())
			if err := assign(p.Elem(), raw); err != nil {
				return fmt.Errorf("record: column %q: %w", col, err)
			}
			f.Set(p)
			continue
		}
		if err := assign(f, raw); err != nil {
			return fmt.Errorf("record: column %q: %w", col, err)
		}
	}
	return nil
}

// assign sets dst from raw, converting between numeric widths when lossless.
func assign(dst reflect.Value, raw any) error {
	rv := reflect.ValueOf(raw)
	if rv.Type() == dst.Type() {
		dst.Set(rv)
		return nil
	}
	switch dst.Kind() {
	case reflect.Int, reflect.Int64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetInt(rv.Int())
			return nil
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			if f == float64(int64(f)) {
				dst.SetInt(int64(f))
				return nil
			}
		}
	case reflect.Float64:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(rv.Float())
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetFloat(float64(rv.Int()))
			return nil
		}
	case reflect.String:
		if rv.Kind() == reflect.String {
			dst.SetString(rv.String())
			return nil
		}
	case reflect.Bool:
		if rv.Kind() == reflect.Bool {
			dst.SetBool(rv.Bool())
			return nil
		}
	}
	if rv.Type().ConvertibleTo(dst.Type()) && rv.Kind() == dst.Kind() {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot store %T into %s", raw, dst.Type())
}
