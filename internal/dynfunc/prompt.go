package dynfunc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// systemInstruction constrains the backend to the machine-readable reply
// shape parseReply expects. It is reissued before every invocation.
const systemInstruction = `You are a function execution engine. You will receive an instruction ` +
	`followed by zero or more positional parameters. Carry out the instruction ` +
	`and answer with EXACTLY one JSON object and nothing else: no prose, no ` +
	`markdown, no code fences. The object must contain the key "response" ` +
	`holding the result. If you cannot produce a result, set "response" to null ` +
	`and add an "error" key with a short explanation. Never add other keys.`

// buildPrompt assembles the invocation prompt: the template text followed by
// each positional parameter labelled with its index and JSON type, each label
// on its own line above the literal value.
func buildPrompt(template string, params []any) string {
	var b strings.Builder
	b.WriteString(template)
	for i, p := range params {
		fmt.Fprintf(&b, "\n[PARAMETER %d of type %s]\n%s", i, jsonTypeName(p), renderParam(p))
	}
	return b.String()
}

// jsonTypeName reports the JSON type a decoded Go value corresponds to.
func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "object"
	}
}

// renderParam renders a parameter value literally. Strings are passed through
// unquoted so the model sees the text itself; everything else is marshalled.
func renderParam(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
