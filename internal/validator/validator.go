package validator

// The CUE schema is the contract between the netlist builder, the generator
// and whatever consumes the manifest. A document that does not match fails
// loudly here instead of producing half-connected HDL further down.

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource []byte

// Definitions checked by the validator.
const (
	DesignDef   = "#Design"
	ManifestDef = "#Manifest"
)

// Validator checks documents against the embedded CUE schema. A Validator is
// not safe for concurrent use.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// ValidateDesign checks a design document, given as Go data.
func (v *Validator) ValidateDesign(data any) error {
	return v.validate(DesignDef, data)
}

// ValidateDesignJSON checks a design document given as JSON.
func (v *Validator) ValidateDesignJSON(jsonBytes []byte) error {
	return v.validateJSON(DesignDef, jsonBytes)
}

// ValidateManifest checks a manifest before it is written.
func (v *Validator) ValidateManifest(data any) error {
	return v.validate(ManifestDef, data)
}

func (v *Validator) validate(def string, data any) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling data to JSON: %w", err)
	}
	return v.validateJSON(def, jsonBytes)
}

func (v *Validator) validateJSON(def string, jsonBytes []byte) error {
	unified, err := v.unify(def, jsonBytes)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s validation failed: %w", def, err)
	}
	return nil
}

func (v *Validator) unify(def string, jsonBytes []byte) (cue.Value, error) {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("compiling JSON as CUE: %w", dataValue.Err())
	}
	schemaDef := v.schema.LookupPath(cue.ParsePath(def))
	if schemaDef.Err() != nil {
		return cue.Value{}, fmt.Errorf("looking up %s definition: %w", def, schemaDef.Err())
	}
	return schemaDef.Unify(dataValue), nil
}

// ValidationErrors returns every problem found in data, one line each.
func (v *Validator) ValidationErrors(def string, data any) []string {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}
	unified, err := v.unify(def, jsonBytes)
	if err != nil {
		return []string{err.Error()}
	}
	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}
