package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
)

// Link is a single labelled URL attached to a goal.
type Link struct {
	Label string
	URL   string
}

// Links is an ordered label→URL mapping. It encodes as a JSON object whose
// keys keep their insertion order, and is stored as JSON text.
type Links []Link

func (l Links) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, link := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(link.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(link.URL)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *Links) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return &json.UnmarshalTypeError{Value: fmt.Sprint(tok), Type: reflect.TypeFor[Links]()}
	}

	links := Links{}
	index := map[string]int{}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		label, _ := tok.(string)

		// A type error is returned as is so the caller's decoder can name the field.
		var url string
		err = dec.Decode(&url)
		if err != nil {
			return err
		}

		// Repeated labels keep their first position and take the last value.
		if i, ok := index[label]; ok {
			links[i].URL = url
			continue
		}
		index[label] = len(links)
		links = append(links, Link{Label: label, URL: url})
	}

	_, err = dec.Token()
	if err != nil {
		return err
	}

	*l = links
	return nil
}

func (l Links) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	data, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *Links) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return l.UnmarshalJSON(v)
	case string:
		return l.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Links", src)
	}
}
