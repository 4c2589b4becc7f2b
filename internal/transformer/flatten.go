package transformer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// DefaultSeparator joins nested key paths into column names.
const DefaultSeparator = "_"

var (
	ErrInvalidJSON         = errors.New("document is not valid JSON")
	ErrUnsupportedDocument = errors.New("document must be an object or an array of objects")
)

// Flatten turns a JSON document into a Table.
//
// A top-level array yields one row per element and a top-level object yields a
// single row. Nested objects are expanded into columns named by joining the key path
// with sep; arrays stay in one cell as compact JSON. Columns appear in the order
// their keys are first seen across the document.
func Flatten(doc []byte, sep string) (*Table, error) {
	if !gjson.ValidBytes(doc) {
		return nil, ErrInvalidJSON
	}

	t := newTable()
	root := gjson.ParseBytes(doc)

	switch {
	case root.IsArray():
		var err error
		i := 0
		root.ForEach(func(_, elem gjson.Result) bool {
			if !elem.IsObject() {
				err = fmt.Errorf("%w: element %d is %s", ErrUnsupportedDocument, i, elem.Type)
				return false
			}
			t.addRow(flattenObject(elem, sep, t))
			i++
			return true
		})
		if err != nil {
			return nil, err
		}
	case root.IsObject():
		t.addRow(flattenObject(root, sep, t))
	default:
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedDocument, root.Type)
	}

	return t, nil
}

func flattenObject(obj gjson.Result, sep string, t *Table) map[string]string {
	row := make(map[string]string)
	flattenInto(obj, "", sep, row, t)
	return row
}

func flattenInto(obj gjson.Result, prefix, sep string, row map[string]string, t *Table) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if prefix != "" {
			name = prefix + sep + name
		}

		if value.IsObject() {
			flattenInto(value, name, sep, row, t)
			return true
		}

		t.addColumn(name)
		row[name] = cell(value)
		return true
	})
}

func cell(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.String()
	case gjson.JSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
			return v.Raw
		}
		return buf.String()
	default:
		// numbers and booleans keep their literal form
		return v.Raw
	}
}
