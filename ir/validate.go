package ir

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// MaxViolations bounds the number of violations reported in one error.
const MaxViolations = 20

//go:embed schema/*.json
var schemaFS embed.FS

// Violation is one defect found in a serialized document.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// ValidationError aggregates every violation found in one Validate call.
// Violations holds at most MaxViolations entries; Total counts all of them.
type ValidationError struct {
	Violations []Violation
	Total      int

	version error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "IR schema validation failed (%d violations)", e.Total)
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		b.WriteString(v.String())
	}
	if e.Total > len(e.Violations) {
		fmt.Fprintf(&b, "\n  ... %d more", e.Total-len(e.Violations))
	}
	return b.String()
}

// Unwrap exposes ErrUnsupportedVersion when the version check failed.
func (e *ValidationError) Unwrap() error {
	return e.version
}

func (e *ValidationError) add(path, format string, args ...any) {
	e.Total++
	if len(e.Violations) < MaxViolations {
		e.Violations = append(e.Violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
	}
}

// ArrayResolver reports the shape of a stored array.
type ArrayResolver interface {
	Shape(store StoreKind, key string) ([]int, error)
}

type validateOptions struct {
	resolver ArrayResolver
}

// ValidateOption customises Validate.
type ValidateOption func(*validateOptions)

// WithResolver checks that every field ref resolves and that the stored
// array's shape equals the declared shape.
func WithResolver(r ArrayResolver) ValidateOption {
	return func(o *validateOptions) {
		o.resolver = r
	}
}

// recordSchema validates one JSON object a property at a time so that
// every failing property is reported, not just the first.
type recordSchema struct {
	whole      *jsonschema.Resolved
	required   []string
	properties map[string]*jsonschema.Resolved
	// closed rejects properties not listed in properties.
	closed     bool
	additional *jsonschema.Resolved
}

type schemaSet struct {
	document  *recordSchema
	meta      *recordSchema
	timebases *recordSchema
	track     *recordSchema
	field     *recordSchema
	atom      *recordSchema
	evidence  *recordSchema
}

func resolveSchema(raw []byte) (*jsonschema.Resolved, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

func loadRecordSchema(name string) (*recordSchema, error) {
	raw, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return nil, err
	}
	whole, err := resolveSchema(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema %s: %w", name, err)
	}

	var parts struct {
		Required             []string                   `json:"required"`
		Properties           map[string]json.RawMessage `json:"properties"`
		AdditionalProperties json.RawMessage            `json:"additionalProperties"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", name, err)
	}

	rs := &recordSchema{
		whole:      whole,
		required:   parts.Required,
		properties: make(map[string]*jsonschema.Resolved, len(parts.Properties)),
	}
	for prop, sub := range parts.Properties {
		if rs.properties[prop], err = resolveSchema(sub); err != nil {
			return nil, fmt.Errorf("failed to resolve schema %s property %q: %w", name, prop, err)
		}
	}
	switch additional := strings.TrimSpace(string(parts.AdditionalProperties)); additional {
	case "", "true":
	case "false":
		rs.closed = true
	default:
		if rs.additional, err = resolveSchema(parts.AdditionalProperties); err != nil {
			return nil, fmt.Errorf("failed to resolve schema %s additionalProperties: %w", name, err)
		}
	}
	return rs, nil
}

var loadSchemas = sync.OnceValues(func() (*schemaSet, error) {
	var set schemaSet
	var errs []error
	for name, dst := range map[string]**recordSchema{
		"document.json":  &set.document,
		"meta.json":      &set.meta,
		"timebases.json": &set.timebases,
		"track.json":     &set.track,
		"field.json":     &set.field,
		"atom.json":      &set.atom,
		"evidence.json":  &set.evidence,
	} {
		rs, err := loadRecordSchema(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*dst = rs
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &set, nil
})

// Validate checks a serialized document against the embedded schemas and
// the cross-reference rules they cannot express. All violations are
// collected and returned as one *ValidationError.
func Validate(doc map[string]any, opts ...ValidateOption) error {
	var o validateOptions
	for _, opt := range opts {
		opt(&o)
	}

	schemas, err := loadSchemas()
	if err != nil {
		return err
	}

	// Normalise numbers and nested values to their JSON forms.
	doc, err = normalize(doc)
	if err != nil {
		return err
	}

	report := &ValidationError{}
	if err := CheckVersion(doc); err != nil {
		report.version = err
		report.add("meta.ir_version", "%v", err)
	}

	validateRecord(report, schemas.document, "", doc)
	validateRecord(report, schemas.meta, "meta", doc["meta"])
	validateRecord(report, schemas.timebases, "timebases", doc["timebases"])
	for i, t := range asList(doc["tracks"]) {
		validateRecord(report, schemas.track, fmt.Sprintf("tracks[%d]", i), t)
	}
	fields := asObject(doc["fields"])
	for _, k := range sortedKeys(fields) {
		validateRecord(report, schemas.field, fmt.Sprintf("fields[%q]", k), fields[k])
	}
	for _, list := range []string{"events", "segments"} {
		for i, a := range asList(doc[list]) {
			validateRecord(report, schemas.atom, fmt.Sprintf("%s[%d]", list, i), a)
		}
	}
	for i, e := range asList(doc["evidence"]) {
		validateRecord(report, schemas.evidence, fmt.Sprintf("evidence[%d]", i), e)
	}

	checkReferences(report, doc)
	if o.resolver != nil {
		checkShapes(report, fields, o.resolver)
	}

	if report.Total > 0 {
		return report
	}
	return nil
}

func validateRecord(report *ValidationError, rs *recordSchema, path string, v any) {
	if v == nil {
		return
	}
	obj, ok := v.(map[string]any)
	if !ok {
		if err := rs.whole.Validate(v); err != nil {
			report.add(path, "%v", err)
		}
		return
	}

	for _, name := range rs.required {
		if _, ok := obj[name]; !ok {
			report.add(path, "missing required property %q", name)
		}
	}
	for _, name := range sortedKeys(obj) {
		sub, known := rs.properties[name]
		switch {
		case known:
		case rs.closed:
			report.add(joinPath(path, name), "unknown property")
			continue
		case rs.additional != nil:
			sub = rs.additional
		default:
			continue
		}
		if err := sub.Validate(obj[name]); err != nil {
			report.add(joinPath(path, name), "%v", err)
		}
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// checkReferences enforces id uniqueness, interval ordering and that every
// track, timebase and evidence reference names something declared.
func checkReferences(report *ValidationError, doc map[string]any) {
	tracks := map[string]bool{}
	for _, t := range asList(doc["tracks"]) {
		if id, ok := asObject(t)["id"].(string); ok {
			tracks[id] = true
		}
	}

	timebases := map[string]bool{SamplesTimebase: true}
	for _, f := range asList(asObject(doc["timebases"])["frames"]) {
		if name, ok := asObject(f)["name"].(string); ok {
			timebases[name] = true
		}
	}

	evidence := map[string]bool{}
	for i, e := range asList(doc["evidence"]) {
		rec := asObject(e)
		id, _ := rec["id"].(string)
		if evidence[id] {
			report.add(fmt.Sprintf("evidence[%d].id", i), "duplicate id %q", id)
		}
		evidence[id] = true
		span := asObject(rec["span"])
		if t0, t1, ok := interval(span); ok && t0 > t1 {
			report.add(fmt.Sprintf("evidence[%d].span", i), "t0 %v is after t1 %v", t0, t1)
		}
	}

	fields := asObject(doc["fields"])
	for _, k := range sortedKeys(fields) {
		rec := asObject(fields[k])
		if tb, ok := rec["timebase"].(string); ok && !timebases[tb] {
			report.add(fmt.Sprintf("fields[%q].timebase", k), "unknown timebase %q", tb)
		}
		if tr, ok := rec["track"].(string); ok && !tracks[tr] {
			report.add(fmt.Sprintf("fields[%q].track", k), "unknown track %q", tr)
		}
	}

	for _, list := range []string{"events", "segments"} {
		seen := map[string]bool{}
		for i, a := range asList(doc[list]) {
			rec := asObject(a)
			path := fmt.Sprintf("%s[%d]", list, i)
			id, _ := rec["id"].(string)
			if seen[id] {
				report.add(path+".id", "duplicate id %q", id)
			}
			seen[id] = true
			if t0, t1, ok := interval(rec); ok && t0 > t1 {
				report.add(path, "t0 %v is after t1 %v", t0, t1)
			}
			if tr, ok := rec["track"].(string); ok && !tracks[tr] {
				report.add(path+".track", "unknown track %q", tr)
			}
			for j, ref := range asList(rec["evidence"]) {
				if s, ok := ref.(string); ok && !evidence[s] {
					report.add(fmt.Sprintf("%s.evidence[%d]", path, j), "dangling evidence id %q", s)
				}
			}
		}
	}
}

func checkShapes(report *ValidationError, fields map[string]any, resolver ArrayResolver) {
	for _, k := range sortedKeys(fields) {
		rec := asObject(fields[k])
		ref := asObject(rec["ref"])
		store, _ := ref["store"].(string)
		key, _ := ref["key"].(string)
		if store == "" || key == "" {
			continue
		}
		path := fmt.Sprintf("fields[%q].ref", k)
		got, err := resolver.Shape(StoreKind(store), key)
		if err != nil {
			report.add(path, "unresolvable: %v", err)
			continue
		}
		want, ok := intList(rec["shape"])
		if ok && !slices.Equal(got, want) {
			report.add(fmt.Sprintf("fields[%q].shape", k), "declared %v, stored %v", want, got)
		}
	}
}

func normalize(doc map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document is not serializable: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func interval(m map[string]any) (t0, t1 float64, ok bool) {
	t0, ok0 := m["t0"].(float64)
	t1, ok1 := m["t1"].(float64)
	return t0, t1, ok0 && ok1
}

func intList(v any) ([]int, bool) {
	l, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, len(l))
	for i, x := range l {
		f, ok := x.(float64)
		if !ok {
			return nil, false
		}
		out[i] = int(f)
	}
	return out, true
}
