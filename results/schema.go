package results

import (
	_ "embed"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"github.com/teranos/joulebench/errors"
)

// Column limits of the benchmark table
const (
	MaxAlgorithmLen = 50
	MaxTypeLen      = 20
	MaxMethodLen    = 50
	MaxTimestampLen = 50
)

//go:embed entry.schema.json
var entrySchemaJSON []byte

var (
	entrySchemaOnce sync.Once
	entrySchema     *gojsonschema.Schema
	entrySchemaErr  error
)

func loadEntrySchema() (*gojsonschema.Schema, error) {
	entrySchemaOnce.Do(func() {
		entrySchema, entrySchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(entrySchemaJSON))
		if entrySchemaErr != nil {
			entrySchemaErr = errors.Wrap(entrySchemaErr, "compile entry schema")
		}
	})
	return entrySchema, entrySchemaErr
}

// Validate checks the entry against the entry schema. Entries decoded from a
// file are checked as written; entries built in code are checked as marshaled.
// Failures are marked ErrSchema and list every offending field.
func (e Entry) Validate() error {
	schema, err := loadEntrySchema()
	if err != nil {
		return err
	}

	var loader gojsonschema.JSONLoader
	if len(e.raw) > 0 {
		loader = gojsonschema.NewBytesLoader(e.raw)
	} else {
		loader = gojsonschema.NewGoLoader(e)
	}

	result, err := schema.Validate(loader)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "validate entry"), errors.ErrSchema)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.String())
	}
	return errors.WithDetail(
		errors.NewSchemaError("entry %q: %s", e.Algorithm, strings.Join(problems, "; ")),
		strings.Join(problems, "\n"))
}

// Validate checks the document provenance every row is stamped with
func (m *Meta) Validate() error {
	switch {
	case m == nil:
		return errors.NewSchemaError("document has no meta")
	case m.MeasurementMethod == "":
		return errors.NewSchemaError("meta.measurement_method is required")
	case m.Timestamp == "":
		return errors.NewSchemaError("meta.timestamp is required")
	case utf8.RuneCountInString(m.MeasurementMethod) > MaxMethodLen:
		return errors.NewSchemaError("meta.measurement_method longer than %d characters", MaxMethodLen)
	case utf8.RuneCountInString(m.Timestamp) > MaxTimestampLen:
		return errors.NewSchemaError("meta.timestamp longer than %d characters", MaxTimestampLen)
	}
	return nil
}
