// Package schema embeds the CUE schemas used to validate policy
// documents before they are accepted by pkg/capgw, independent of
// whether they arrive via boruna.toml's [policy] section or a
// standalone evidence-bundle policy.json.
package schema

import _ "embed"

// Policy is the CUE source defining #Policy, the schema a serialized
// capgw.Policy must unify with.
//
//go:embed policy.cue
var Policy string
