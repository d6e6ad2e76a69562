package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fieldKind is the type a named document field decodes into.
type fieldKind int

const (
	kindAny fieldKind = iota
	kindID
	kindString
	kindFloat
	kindInt
)

// fieldSet maps the named fields of a document to their kinds. Members not
// listed are kept in the document's Extra map.
type fieldSet map[string]fieldKind

// decodeStoredDocument decodes data into dest, which must not implement
// bson.Unmarshaler. Named fields holding a value of the wrong type are left
// zero and returned so the caller can keep them with the other unnamed
// members.
func decodeStoredDocument(data []byte, fields fieldSet, dest interface{}) (bson.M, error) {
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	clean := make(bson.D, 0, len(doc))
	var stray bson.M
	for _, elem := range doc {
		kind, named := fields[elem.Key]
		if !named {
			clean = append(clean, elem)
			continue
		}
		value, ok := kind.fromBSON(elem.Value)
		if !ok {
			if stray == nil {
				stray = bson.M{}
			}
			stray[elem.Key] = elem.Value
			continue
		}
		clean = append(clean, bson.E{Key: elem.Key, Value: value})
	}

	raw, err := bson.Marshal(clean)
	if err != nil {
		return nil, err
	}
	if err := bson.Unmarshal(raw, dest); err != nil {
		return nil, err
	}
	return stray, nil
}

func (k fieldKind) fromBSON(v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, true
	}
	switch k {
	case kindID:
		_, ok := v.(primitive.ObjectID)
		return v, ok
	case kindString:
		_, ok := v.(string)
		return v, ok
	case kindFloat:
		f, ok := toNumber(v)
		return f, ok
	case kindInt:
		f, ok := toNumber(v)
		if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return nil, false
		}
		return int64(f), true
	}
	return v, true
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// decodeJSONDocument decodes a JSON object into dest, which must not
// implement json.Unmarshaler, and returns the members fields does not name.
// Numeric fields accept numeric strings.
func decodeJSONDocument(data []byte, fields fieldSet, dest interface{}) (bson.M, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var members map[string]interface{}
	if err := dec.Decode(&members); err != nil {
		return nil, err
	}

	named := make(map[string]interface{}, len(members))
	var extra bson.M
	for key, value := range members {
		kind, ok := fields[key]
		if !ok {
			if extra == nil {
				extra = bson.M{}
			}
			extra[key] = fromJSON(value)
			continue
		}
		coerced, err := kind.fromJSON(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		named[key] = coerced
	}

	raw, err := json.Marshal(named)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return nil, err
	}
	return extra, nil
}

func (k fieldKind) fromJSON(v interface{}) (interface{}, error) {
	s, isString := v.(string)
	switch k {
	case kindFloat:
		if isString {
			if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				return nil, fmt.Errorf("%q is not a number", s)
			}
			return json.Number(strings.TrimSpace(s)), nil
		}
	case kindInt:
		var raw string
		switch n := v.(type) {
		case json.Number:
			raw = n.String()
		case string:
			raw = strings.TrimSpace(n)
		default:
			return v, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f != math.Trunc(f) {
			return nil, fmt.Errorf("%q is not a whole number", raw)
		}
		return json.Number(strconv.FormatInt(int64(f), 10)), nil
	}
	return v, nil
}

// fromJSON turns decoder output into values the BSON codec stores as the
// matching BSON types.
func fromJSON(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]interface{}:
		out := make(bson.M, len(val))
		for k, inner := range val {
			out[k] = fromJSON(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = fromJSON(inner)
		}
		return out
	}
	return v
}

// plainValue converts ordered BSON documents into maps so they encode as JSON
// objects.
func plainValue(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.D:
		out := make(bson.M, len(val))
		for _, e := range val {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case primitive.M:
		out := make(bson.M, len(val))
		for k, inner := range val {
			out[k] = plainValue(inner)
		}
		return out
	case primitive.A:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = plainValue(inner)
		}
		return out
	}
	return v
}

// mergeExtra combines the unnamed members of a decoded document. Named
// fields always take precedence on output.
func mergeExtra(parts ...bson.M) bson.M {
	var out bson.M
	for _, part := range parts {
		for k, v := range part {
			if out == nil {
				out = bson.M{}
			}
			out[k] = plainValue(v)
		}
	}
	return out
}

// encodeJSONDocument renders the named fields of known and adds the extra
// members fields does not name. Mistyped values of named fields stay out of
// the output so it always decodes again.
func encodeJSONDocument(known interface{}, fields fieldSet, extra bson.M) ([]byte, error) {
	raw, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return raw, err
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, named := fields[k]; named {
			continue
		}
		if _, taken := members[k]; taken {
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		members[k] = encoded
	}
	return json.Marshal(members)
}
