package po

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"poclerk/constants"
)

// Outcome classifies how a model response fared against validation.
type Outcome string

const (
	OutcomeOK       Outcome = "OK"       // approved identifier extracted
	OutcomeNoJSON   Outcome = "NO_JSON"  // response held no JSON object at all
	OutcomeBadJSON  Outcome = "BAD_JSON" // scraped candidate did not parse
	OutcomeRejected Outcome = "REJECTED" // parsed, but no approved identifier
)

// Validation is the result of screening one model response.
type Validation struct {
	PONumber string  // approved identifier, or constants.UnknownPO
	Outcome  Outcome
	Reason   string // detail for non-OK outcomes
	Raw      string // scraped JSON candidate, kept for diagnostics
}

// first brace-delimited substring, non-greedy, across lines
var reJSONObject = regexp.MustCompile(`(?s)\{.*?\}`)

// Validator screens model responses. The model is never trusted: the
// approved store check runs here regardless of what the prompt asked for.
type Validator struct {
	stores map[string]struct{}
	schema *jsonschema.Schema
}

func NewValidator(stores []string) (*Validator, error) {
	set := make(map[string]struct{}, len(stores))
	for _, s := range stores {
		set[s] = struct{}{}
	}
	schema, err := compileResponseSchema()
	if err != nil {
		return nil, err
	}
	return &Validator{stores: set, schema: schema}, nil
}

func compileResponseSchema() (*jsonschema.Schema, error) {
	m := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"translated_po": map[string]any{"type": "string"},
		},
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("response.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("response.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// Validate screens one raw model response. It never returns an error; the
// Outcome says how the response fell short. The first brace-delimited
// substring is taken as the JSON candidate. To come back OK the candidate
// must parse, match the response schema, and carry a "translated_po" that
// satisfies the identifier grammar with an approved store number. Every
// other road leads to the sentinel.
func (v *Validator) Validate(raw string) Validation {
	candidate := reJSONObject.FindString(raw)
	if candidate == "" {
		return Validation{
			PONumber: constants.UnknownPO,
			Outcome:  OutcomeNoJSON,
			Reason:   "no JSON object in response",
		}
	}

	var payload any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return Validation{
			PONumber: constants.UnknownPO,
			Outcome:  OutcomeBadJSON,
			Reason:   fmt.Sprintf("invalid JSON: %v", err),
			Raw:      candidate,
		}
	}
	if err := v.schema.Validate(payload); err != nil {
		return Validation{
			PONumber: constants.UnknownPO,
			Outcome:  OutcomeRejected,
			Reason:   fmt.Sprintf("response shape: %v", err),
			Raw:      candidate,
		}
	}

	obj, _ := payload.(map[string]any)
	field, ok := obj["translated_po"]
	if !ok {
		return Validation{
			PONumber: constants.UnknownPO,
			Outcome:  OutcomeRejected,
			Reason:   "missing translated_po field",
			Raw:      candidate,
		}
	}
	id, _ := field.(string)

	if id == constants.UnknownPO {
		return Validation{
			PONumber: constants.UnknownPO,
			Outcome:  OutcomeRejected,
			Reason:   "model reported no authorized store",
			Raw:      candidate,
		}
	}
	store, ok := StorePrefix(id)
	if !ok {
		return Validation{
			PONumber: constants.UnknownPO,
			Outcome:  OutcomeRejected,
			Reason:   fmt.Sprintf("malformed identifier %q", id),
			Raw:      candidate,
		}
	}
	if _, ok := v.stores[store]; !ok {
		return Validation{
			PONumber: constants.UnknownPO,
			Outcome:  OutcomeRejected,
			Reason:   fmt.Sprintf("store %s is not approved", store),
			Raw:      candidate,
		}
	}

	return Validation{PONumber: id, Outcome: OutcomeOK, Raw: candidate}
}
