package payment

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// The envelope is a fixed, flat shape: <xml> wrapping one
// <name><![CDATA[value]]></name> tag per parameter. A regex scanner is
// enough for that shape and deliberately not a general XML parser; it
// sits behind Encode/Decode so it could be swapped without touching the
// request builder.
var envelopeTagRE = regexp.MustCompile(`(?s)<([A-Za-z0-9_]+)><!\[CDATA\[(.*?)\]\]></([A-Za-z0-9_]+)>`)

// ErrUnsafeValue is returned by EncodeEnvelope when a value contains the
// CDATA terminator and would corrupt the envelope.
var ErrUnsafeValue = errors.New("value contains CDATA terminator")

// EncodeEnvelope renders a parameter set as the wire envelope. Keys are
// emitted in sorted order so the output is deterministic per call;
// entries with empty values are skipped, matching what the signer sees.
func EncodeEnvelope(params Params) (string, error) {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		if strings.Contains(v, "]]>") {
			return "", ErrUnsafeValue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<xml>")
	for _, k := range keys {
		b.WriteString("<")
		b.WriteString(k)
		b.WriteString("><![CDATA[")
		b.WriteString(params[k])
		b.WriteString("]]></")
		b.WriteString(k)
		b.WriteString(">")
	}
	b.WriteString("</xml>")
	return b.String(), nil
}

// DecodeEnvelope extracts every well-formed tag/value pair from text.
// Tags that do not match the exact CDATA shape, mismatched open/close
// names, and anything after a malformed point are ignored rather than
// treated as errors; callers check for the fields they require. Zero
// matches yields an empty, non-nil parameter set.
func DecodeEnvelope(text string) Params {
	params := make(Params)
	for _, m := range envelopeTagRE.FindAllStringSubmatch(text, -1) {
		if m[1] != m[3] {
			continue
		}
		params[m[1]] = m[2]
	}
	return params
}
