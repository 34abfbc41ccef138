package apiclient

import (
	"bytes"
	"encoding/json"

	"github.com/safespace-dev/safespace/internal/api"
	"github.com/safespace-dev/safespace/internal/logger"
)

// unwrapEnvelope returns the payload of a response body and the message the
// envelope carries, if any. Bodies without a "data" field are their own
// payload. rejected is set only when the envelope says "success": false.
func unwrapEnvelope(body []byte) (payload json.RawMessage, message string, rejected bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, "", false
	}

	var env api.Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed, "", false
	}
	message = env.Message
	if message == "" {
		message = env.Error
	}
	rejected = env.Success != nil && !*env.Success
	if len(env.Data) == 0 {
		return trimmed, message, rejected
	}
	return env.Data, message, rejected
}

// decodeList normalizes the list shapes the API is known to return, in this
// order:
//
//  1. a bare array
//  2. an object wrapping the array under key, e.g. {"questions": [...]}
//  3. the same object with pagination, {"questions": [...], "pagination": {"totalDocs": N}}
//
// Anything else yields an empty list. Elements that fail to decode are
// skipped. The returned total is pagination.totalDocs when present, else the
// number of decoded items.
func decodeList[T any](payload json.RawMessage, key string) ([]T, int) {
	items := []T{}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return items, 0
	}

	var raw []json.RawMessage
	total := -1

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			logger.Log.Warn("unrecognized list payload", "key", key, "error", err)
			return items, 0
		}
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			logger.Log.Warn("unrecognized list payload", "key", key, "error", err)
			return items, 0
		}
		list, ok := wrapper[key]
		if !ok {
			logger.Log.Warn("list payload without expected key", "key", key)
			return items, 0
		}
		if err := json.Unmarshal(list, &raw); err != nil {
			logger.Log.Warn("list key is not an array", "key", key, "error", err)
			return items, 0
		}
		if pg, ok := wrapper["pagination"]; ok {
			var pagination api.Pagination
			if err := json.Unmarshal(pg, &pagination); err == nil {
				total = pagination.TotalDocs
			}
		}
	default:
		logger.Log.Warn("unrecognized list payload", "key", key)
		return items, 0
	}

	for i, elem := range raw {
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			logger.Log.Warn("skipping undecodable list element", "key", key, "index", i, "error", err)
			continue
		}
		items = append(items, item)
	}

	if total < 0 {
		total = len(items)
	}
	return items, total
}

// decodeItem decodes a single object payload, also accepting it wrapped under
// key ({"question": {...}}).
func decodeItem[T any](payload json.RawMessage, key string) (T, bool) {
	var item T
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return item, false
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return item, false
	}
	if inner, ok := wrapper[key]; ok {
		inner = bytes.TrimSpace(inner)
		if len(inner) > 0 && inner[0] == '{' {
			trimmed = inner
		}
	}

	if err := json.Unmarshal(trimmed, &item); err != nil {
		return item, false
	}
	return item, true
}
