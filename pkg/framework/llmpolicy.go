package framework

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/chazu/boruna/pkg/bytecode"
)

// LlmPolicy is the additional sub-budget constraining `llm_call` effects
// (spec §4.F): a prompt/model allowlist, a total token budget, a per-call
// output-token ceiling, a context-size ceiling and a call-count limit
// (counted over the policy's lifetime, not per cycle). Every denial is a
// KindPolicyViolation error; which limit fired is told only by the error
// message, not by a separate kind.
type LlmPolicy struct {
	AllowedPromptIDs  []string
	AllowedModels     []string
	TotalTokenBudget  uint64
	MaxOutputTokens   uint64
	MaxCalls          uint64
	MaxContextBytes   uint64

	tokensSpent uint64
	callsMade   uint64
}

// DefaultLlmPolicy permits any prompt/model with generous ceilings, the
// default sub-budget for a module declaring no `policies()`.
func DefaultLlmPolicy() LlmPolicy {
	return LlmPolicy{
		TotalTokenBudget: 1_000_000,
		MaxOutputTokens:  8_192,
		MaxCalls:         1_000,
		MaxContextBytes:  1_000_000,
	}
}

func llmPolicyFromValue(value bytecode.Value) LlmPolicy {
	p := DefaultLlmPolicy()
	fields := value.RecordFields()
	if len(fields) > 0 {
		p.AllowedPromptIDs = extractStringList(fields[0])
	}
	if len(fields) > 1 {
		p.AllowedModels = extractStringList(fields[1])
	}
	if len(fields) > 2 && fields[2].Kind() == bytecode.KindInt {
		p.TotalTokenBudget = uint64(fields[2].IntValue())
	}
	if len(fields) > 3 && fields[3].Kind() == bytecode.KindInt {
		p.MaxOutputTokens = uint64(fields[3].IntValue())
	}
	if len(fields) > 4 && fields[4].Kind() == bytecode.KindInt {
		p.MaxCalls = uint64(fields[4].IntValue())
	}
	if len(fields) > 5 && fields[5].Kind() == bytecode.KindInt {
		p.MaxContextBytes = uint64(fields[5].IntValue())
	}
	return p
}

// llmCallRequest is the expected shape of an llm_call effect's payload:
// Record{prompt_id, model, max_output_tokens, context_bytes}.
type llmCallRequest struct {
	PromptID        string
	Model           string
	MaxOutputTokens uint64
	ContextBytes    uint64
}

func parseLlmCallRequest(payload bytecode.Value) llmCallRequest {
	var req llmCallRequest
	if payload.Kind() != bytecode.KindRecord {
		return req
	}
	fields := payload.RecordFields()
	if len(fields) > 0 && fields[0].Kind() == bytecode.KindString {
		req.PromptID = fields[0].StringValue()
	}
	if len(fields) > 1 && fields[1].Kind() == bytecode.KindString {
		req.Model = fields[1].StringValue()
	}
	if len(fields) > 2 && fields[2].Kind() == bytecode.KindInt {
		req.MaxOutputTokens = uint64(fields[2].IntValue())
	}
	if len(fields) > 3 && fields[3].Kind() == bytecode.KindInt {
		req.ContextBytes = uint64(fields[3].IntValue())
	}
	return req
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// CheckCall validates an llm_call effect's payload against every
// sub-budget constraint, tracking cumulative spend across calls within
// the same LlmPolicy instance (a fresh PolicySet per AppRuntime means the
// budget resets once per application lifetime, matching spec.md's "total
// token budget" wording rather than a per-cycle one).
func (p *LlmPolicy) CheckCall(payload bytecode.Value) error {
	req := parseLlmCallRequest(payload)

	if len(p.AllowedPromptIDs) > 0 && !contains(p.AllowedPromptIDs, req.PromptID) {
		return newError(KindPolicyViolation, "llm_call: prompt id %q is not in the allowlist", req.PromptID)
	}
	if len(p.AllowedModels) > 0 && !contains(p.AllowedModels, req.Model) {
		return newError(KindPolicyViolation, "llm_call: model %q is not in the allowlist", req.Model)
	}
	if p.MaxOutputTokens > 0 && req.MaxOutputTokens > p.MaxOutputTokens {
		return newError(KindPolicyViolation, "llm_call: requested %d output tokens exceeds per-call max of %d", req.MaxOutputTokens, p.MaxOutputTokens)
	}
	if p.MaxContextBytes > 0 && req.ContextBytes > p.MaxContextBytes {
		return newError(KindPolicyViolation, "llm_call: context of %d bytes exceeds max of %d", req.ContextBytes, p.MaxContextBytes)
	}
	if p.MaxCalls > 0 && p.callsMade+1 > p.MaxCalls {
		return newError(KindPolicyViolation, "llm_call: call count would exceed limit of %d", p.MaxCalls)
	}
	if p.TotalTokenBudget > 0 && p.tokensSpent+req.MaxOutputTokens > p.TotalTokenBudget {
		return newError(KindPolicyViolation, "llm_call: would exceed total token budget of %d", p.TotalTokenBudget)
	}

	p.callsMade++
	p.tokensSpent += req.MaxOutputTokens
	return nil
}

// llmCacheKeyInput is the documented tuple the cache key hashes over
// (spec §4.F): prompt_id, sorted args, sorted context_refs, model,
// max_output_tokens, temperature, schema_id, prompt_content_hash,
// schema_content_hash.
type llmCacheKeyInput struct {
	PromptID          string   `json:"prompt_id"`
	Args              []string `json:"args"`
	ContextRefs       []string `json:"context_refs"`
	Model             string   `json:"model"`
	MaxOutputTokens   uint64   `json:"max_output_tokens"`
	Temperature       float64  `json:"temperature"`
	SchemaID          string   `json:"schema_id"`
	PromptContentHash string   `json:"prompt_content_hash"`
	SchemaContentHash string   `json:"schema_content_hash"`
}

// LlmCacheKey computes the SHA-256 cache key over the canonical-JSON
// encoding of the documented tuple. This package keeps no response cache
// and does no replay lookup with the key.
func LlmCacheKey(promptID string, args, contextRefs []string, model string, maxOutputTokens uint64, temperature float64, schemaID, promptContentHash, schemaContentHash string) string {
	sortedArgs := append([]string(nil), args...)
	sort.Strings(sortedArgs)
	sortedRefs := append([]string(nil), contextRefs...)
	sort.Strings(sortedRefs)

	input := llmCacheKeyInput{
		PromptID: promptID, Args: sortedArgs, ContextRefs: sortedRefs, Model: model,
		MaxOutputTokens: maxOutputTokens, Temperature: temperature, SchemaID: schemaID,
		PromptContentHash: promptContentHash, SchemaContentHash: schemaContentHash,
	}
	data, err := json.Marshal(input)
	if err != nil {
		// json.Marshal on this struct can only fail for unsupported types,
		// none of which appear here; this path is unreachable but kept
		// explicit rather than ignoring the error.
		data = []byte{}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// KindLlmReplayMiss marks a replay-mode llm_call lookup that found no
// cached response. errLlmReplayMiss builds such an error; nothing in
// this package calls it.
const KindLlmReplayMiss = "LlmReplayMiss"

func errLlmReplayMiss(cacheKey string) *Error {
	return newError(KindLlmReplayMiss, "llm_call: no cached response for key %s during replay", cacheKey)
}
