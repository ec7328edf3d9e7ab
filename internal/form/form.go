package form

import (
	"context"
	"errors"
	"maps"
	"regexp"
	"strings"
)

var (
	// ErrInvalid is returned by Submit when validation fails. Save is not
	// called and Errors describes each failing field.
	ErrInvalid = errors.New("form has validation errors")

	digitsOnly = regexp.MustCompile(`^\d*$`)
)

const msgDigitsOnly = "Only digits are allowed"

type schema struct {
	fields   []string
	numeric  map[string]bool
	validate func(f *Form) map[string]string
}

// Form is the editable state behind one create or edit form. Values are
// kept as typed so a failed save can re-render exactly what was entered.
type Form struct {
	schema *schema
	id     string
	values map[string]string
	errs   map[string]string
	dirty  bool
	// rejected holds posted values Bind could not apply.
	rejected map[string]bool
}

func newForm(s *schema, id string, initial map[string]string) *Form {
	values := make(map[string]string, len(s.fields))
	for _, name := range s.fields {
		values[name] = initial[name]
	}
	return &Form{schema: s, id: id, values: values, errs: map[string]string{}, rejected: map[string]bool{}}
}

// ID is the record being edited, empty in create mode.
func (f *Form) ID() string { return f.id }

func (f *Form) EditMode() bool { return f.id != "" }

func (f *Form) Dirty() bool { return f.dirty }

func (f *Form) Value(name string) string { return f.values[name] }

// Values returns every field's current value.
func (f *Form) Values() map[string]string { return maps.Clone(f.values) }

func (f *Form) Error(name string) string { return f.errs[name] }

// Errors returns the current field errors keyed by field name.
func (f *Form) Errors() map[string]string { return maps.Clone(f.errs) }

func (f *Form) HasErrors() bool { return len(f.errs) > 0 }

// Set records a keystroke-level change. Numeric fields refuse anything but
// digits and report false, leaving the form unchanged. An accepted change
// marks the form dirty and clears that field's error.
func (f *Form) Set(name, value string) bool {
	if _, ok := f.values[name]; !ok {
		return false
	}
	if f.schema.numeric[name] && !digitsOnly.MatchString(value) {
		return false
	}
	if f.values[name] != value {
		f.values[name] = value
		f.dirty = true
	}
	delete(f.errs, name)
	delete(f.rejected, name)
	return true
}

// Bind applies every known field present in values, e.g. a posted form.
// Fields that are absent keep their current value. A posted value that Set
// refuses marks the form dirty and fails validation until replaced.
func (f *Form) Bind(values map[string][]string) {
	for _, name := range f.schema.fields {
		v, ok := values[name]
		if !ok || len(v) == 0 {
			continue
		}
		if !f.Set(name, v[0]) {
			f.rejected[name] = true
			f.errs[name] = msgDigitsOnly
			f.dirty = true
		}
	}
}

// Validate recomputes Errors and reports whether the form is valid.
func (f *Form) Validate() bool {
	f.errs = f.schema.validate(f)
	if f.errs == nil {
		f.errs = map[string]string{}
	}
	for name := range f.rejected {
		f.errs[name] = msgDigitsOnly
	}
	return len(f.errs) == 0
}

// Submit validates and, only when valid, calls save. A failed save keeps
// the entered values and returns save's error.
func (f *Form) Submit(ctx context.Context, save func(ctx context.Context) error) error {
	if !f.Validate() {
		return ErrInvalid
	}
	if err := save(ctx); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

func (f *Form) trimmed(name string) string {
	return strings.TrimSpace(f.values[name])
}
