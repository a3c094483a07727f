// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package evaluate

import (
	"encoding/json"

	"github.com/tombee/fieldbind/pkg/mapping"
)

// contextEnv flattens a conversation context into the plain JSON-shaped map
// both expression engines operate on. All six addressable properties are
// always bound — list fields as empty slices when unset — so expressions
// like map(sources, ...) evaluate over an empty collection instead of
// failing on a missing variable.
func contextEnv(cc *mapping.ConversationContext) map[string]any {
	if cc == nil {
		cc = &mapping.ConversationContext{}
	}
	return map[string]any{
		"query":      cc.Query,
		"sources":    plainSlice(cc.Sources),
		"files":      plainSlice(cc.Files),
		"history":    plainSlice(cc.History),
		"summary":    cc.Summary,
		"keyPhrases": plainSlice(cc.KeyPhrases),
	}
}

// fieldValue resolves one addressable context property for a field rule.
// Unlike the expression env, an unset list field resolves to nil here so
// default substitution applies to it the same way it does to an unset
// string. An explicitly empty list stays an empty list.
func fieldValue(cc *mapping.ConversationContext, field string) any {
	if cc == nil {
		cc = &mapping.ConversationContext{}
	}
	switch field {
	case "query":
		return cc.Query
	case "summary":
		return cc.Summary
	case "sources":
		if cc.Sources == nil {
			return nil
		}
		return plainSlice(cc.Sources)
	case "files":
		if cc.Files == nil {
			return nil
		}
		return plainSlice(cc.Files)
	case "history":
		if cc.History == nil {
			return nil
		}
		return plainSlice(cc.History)
	case "keyPhrases":
		if cc.KeyPhrases == nil {
			return nil
		}
		return plainSlice(cc.KeyPhrases)
	}
	return nil
}

// plainSlice converts a typed slice into []any of plain values.
func plainSlice[T any](items []T) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, toPlain(item))
	}
	return out
}

// toPlain converts any value into plain maps, slices, and scalars via a JSON
// round trip. gojq only accepts plain values, and using the same shapes for
// expr keeps field lookup and both expression syntaxes consistent.
func toPlain(v any) any {
	if v == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	if out == nil {
		return map[string]any{}
	}
	return out
}

// isEmpty reports whether a resolved value triggers default substitution:
// undefined/null lookups and empty strings do, everything else does not.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
