package payment

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// FieldSign is the parameter carrying the digest on the wire.
const FieldSign = "sign"

// Sign computes the protocol digest over a parameter set: entries with
// empty values are dropped, the rest are sorted bytewise by key, joined
// as k=v pairs with '&', suffixed with &key=<secret>, and hashed with
// MD5 (fixed by the upstream protocol). The digest is uppercase hex.
func Sign(params Params, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	canonical := strings.Join(pairs, "&") + "&key=" + secret

	sum := md5.Sum([]byte(canonical))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify recomputes the digest over params minus its sign field and
// compares it against the presented one. It never fails hard: a missing
// or empty sign field is simply false. The compare is constant-time
// since this guards financial callbacks.
func Verify(params Params, secret string) bool {
	presented := params.Get(FieldSign)
	if presented == "" {
		return false
	}

	rest := make(Params, len(params))
	for k, v := range params {
		if k == FieldSign {
			continue
		}
		rest[k] = v
	}

	expected := Sign(rest, secret)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}
