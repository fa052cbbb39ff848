// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bank

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// Ext is the extension of every shard and built-in file.
const Ext = ".json"

// ErrMalformed is returned when a bank file cannot be decoded.
var ErrMalformed = errors.New("malformed bank file")

func malformed(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, a...))
}

// Decode parses a bank file. The file is a JSON object mapping fingerprints to
// strings, and each string is itself the JSON text [recipe, tick]. An empty or
// all-whitespace file is an empty bank.
func Decode(data []byte) (map[string]Entry, error) {
	entries := map[string]Entry{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return entries, nil
	}

	if !gjson.ValidBytes(data) {
		return nil, malformed("not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, malformed("top level is %s, not an object", root.Type)
	}

	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = malformed("value of %.40q is %s, not a string", key.String(), value.Type)
			return false
		}

		var e Entry
		if e, err = decodeValue(value.Str); err != nil {
			err = fmt.Errorf("entry %.40q: %w", key.String(), err)
			return false
		}
		entries[key.String()] = e
		return true
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// decodeValue parses the inner [recipe, tick] text.
func decodeValue(s string) (Entry, error) {
	if !gjson.Valid(s) {
		return Entry{}, malformed("inner value is not valid JSON")
	}

	inner := gjson.Parse(s)
	if !inner.IsArray() {
		return Entry{}, malformed("inner value is not an array")
	}

	parts := inner.Array()
	if len(parts) != 2 { //nolint:mnd
		return Entry{}, malformed("inner value has %d elements, want 2", len(parts))
	}

	if !parts[0].IsArray() {
		return Entry{}, malformed("recipe is %s, not an array", parts[0].Type)
	}

	if parts[1].Type != gjson.Number {
		return Entry{}, malformed("tick is %s, not a number", parts[1].Type)
	}
	tick, err := strconv.ParseInt(parts[1].Raw, 10, 64)
	if err != nil {
		return Entry{}, malformed("tick %s is not an integer", parts[1].Raw)
	}

	actions := parts[0].Array()
	recipe := make(Recipe, 0, len(actions))
	for _, a := range actions {
		recipe = append(recipe, json.RawMessage(a.Raw))
	}

	return Entry{Recipe: recipe, Tick: tick}, nil
}

// Encode renders entries in the double-encoded bank format. Keys are written
// in sorted order so equal banks produce equal files.
func Encode(entries map[string]Entry) ([]byte, error) {
	out := make(map[string]string, len(entries))
	for fp, e := range entries {
		recipe := e.Recipe
		if recipe == nil {
			recipe = Recipe{}
		}

		inner, err := marshal([]any{recipe, e.Tick})
		if err != nil {
			return nil, fmt.Errorf("failed to encode entry %.40q: %w", fp, err)
		}
		out[fp] = string(inner)
	}

	b, err := marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bank: %w", err)
	}
	return b, nil
}

// marshal is json.Marshal without HTML escaping, so recipe text is stored as
// it was added.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
