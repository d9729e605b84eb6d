// Package schema holds the canonical configuration shared by every batch:
// the alias table, the required feature list, category keyword rules, the
// state code list, and date layouts. A Schema is immutable once built and
// safe for concurrent use.
package schema

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Alias maps an upstream column name onto a canonical one.
type Alias struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// CategoryRule sets category slot Slot when the lowercase category text
// contains any of Keywords.
type CategoryRule struct {
	Slot     int      `yaml:"slot"`
	Keywords []string `yaml:"keywords"`
}

// Spec is the serialized form of a Schema. Zero-valued fields fall back to
// the built-in defaults when loaded from a file.
type Spec struct {
	Aliases       []Alias        `yaml:"aliases"`
	Features      []string       `yaml:"features"`
	CategoryRules []CategoryRule `yaml:"category_rules"`
	CategorySlots int            `yaml:"category_slots"`
	StateCodes    []string       `yaml:"state_codes"`
	DateLayouts   []string       `yaml:"date_layouts"`
	DefaultAge    int            `yaml:"default_age"`
}

// Schema is the validated, read-only canonical configuration.
type Schema struct {
	aliases       []Alias
	features      []string
	rules         []CategoryRule
	categorySlots int
	stateCodes    []string
	layouts       []string
	defaultAge    int
	stateSet      map[string]struct{}
}

// CategorySlot returns the feature name of category slot i (1-based).
func CategorySlot(i int) string {
	return "category_" + strconv.Itoa(i)
}

// StateFlag returns the feature name of the one-hot flag for code.
func StateFlag(code string) string {
	return "state_" + code
}

// New validates spec and builds a Schema from it.
func New(spec Spec) (*Schema, error) {
	if err := validate(spec); err != nil {
		return nil, err
	}
	s := &Schema{
		aliases:       append([]Alias(nil), spec.Aliases...),
		features:      append([]string(nil), spec.Features...),
		categorySlots: spec.CategorySlots,
		stateCodes:    make([]string, len(spec.StateCodes)),
		layouts:       append([]string(nil), spec.DateLayouts...),
		defaultAge:    spec.DefaultAge,
		stateSet:      make(map[string]struct{}, len(spec.StateCodes)),
	}
	for _, r := range spec.CategoryRules {
		kws := make([]string, len(r.Keywords))
		for i, kw := range r.Keywords {
			kws[i] = strings.ToLower(kw)
		}
		s.rules = append(s.rules, CategoryRule{Slot: r.Slot, Keywords: kws})
	}
	for i, code := range spec.StateCodes {
		code = strings.ToUpper(code)
		s.stateCodes[i] = code
		s.stateSet[code] = struct{}{}
	}
	return s, nil
}

// Load reads a YAML schema file. Sections left out of the file keep their
// built-in defaults.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", path, err)
	}
	if spec.Aliases == nil {
		spec.Aliases = DefaultAliases()
	}
	if spec.CategoryRules == nil {
		spec.CategoryRules = DefaultCategoryRules()
	}
	if spec.CategorySlots == 0 {
		spec.CategorySlots = categorySlots
	}
	if spec.StateCodes == nil {
		spec.StateCodes = DefaultStateCodes()
	}
	if spec.DateLayouts == nil {
		spec.DateLayouts = DefaultDateLayouts()
	}
	if spec.DefaultAge == 0 {
		spec.DefaultAge = defaultAge
	}
	if spec.Features == nil {
		spec.Features = DefaultFeatures()
	}
	s, err := New(spec)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", path, err)
	}
	return s, nil
}

func validate(spec Spec) error {
	var errs []error
	if len(spec.Features) == 0 {
		errs = append(errs, errors.New("feature list is empty"))
	}
	seen := make(map[string]bool, len(spec.Features))
	for _, f := range spec.Features {
		if f == "" {
			errs = append(errs, errors.New("feature name is empty"))
			continue
		}
		if seen[f] {
			errs = append(errs, fmt.Errorf("feature %q listed twice", f))
		}
		seen[f] = true
	}
	for _, a := range spec.Aliases {
		if a.Source == "" || a.Target == "" {
			errs = append(errs, fmt.Errorf("alias %q -> %q has an empty side", a.Source, a.Target))
		}
	}
	if spec.CategorySlots < 1 {
		errs = append(errs, fmt.Errorf("category_slots must be >= 1, got %d", spec.CategorySlots))
	}
	for _, r := range spec.CategoryRules {
		if r.Slot < 1 || r.Slot > spec.CategorySlots {
			errs = append(errs, fmt.Errorf("category rule slot %d outside 1..%d", r.Slot, spec.CategorySlots))
		}
		if len(r.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("category rule for slot %d has no keywords", r.Slot))
		}
	}
	codes := make(map[string]bool, len(spec.StateCodes))
	for _, c := range spec.StateCodes {
		c = strings.ToUpper(c)
		if len(c) != 2 {
			errs = append(errs, fmt.Errorf("state code %q is not two letters", c))
		}
		if codes[c] {
			errs = append(errs, fmt.Errorf("state code %q listed twice", c))
		}
		codes[c] = true
	}
	if len(spec.DateLayouts) == 0 {
		errs = append(errs, errors.New("date layout list is empty"))
	}
	if spec.DefaultAge < 0 {
		errs = append(errs, fmt.Errorf("default_age must be >= 0, got %d", spec.DefaultAge))
	}
	return errors.Join(errs...)
}

// Aliases returns the alias table in precedence order.
func (s *Schema) Aliases() []Alias { return append([]Alias(nil), s.aliases...) }

// Features returns the required feature list in classifier order.
func (s *Schema) Features() []string { return append([]string(nil), s.features...) }

// NumFeatures returns len(Features()) without copying.
func (s *Schema) NumFeatures() int { return len(s.features) }

// CategoryRules returns the keyword rules in priority order.
func (s *Schema) CategoryRules() []CategoryRule {
	out := make([]CategoryRule, len(s.rules))
	for i, r := range s.rules {
		out[i] = CategoryRule{Slot: r.Slot, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// CategorySlots returns the width of the category one-hot group.
func (s *Schema) CategorySlots() int { return s.categorySlots }

// StateCodes returns the state code list, uppercase.
func (s *Schema) StateCodes() []string { return append([]string(nil), s.stateCodes...) }

// IsStateCode reports whether code (already uppercased) is in the list.
func (s *Schema) IsStateCode(code string) bool {
	_, ok := s.stateSet[code]
	return ok
}

// DateLayouts returns the date layouts in the order they are tried.
func (s *Schema) DateLayouts() []string { return append([]string(nil), s.layouts...) }

// DefaultAge returns the age used when none can be derived.
func (s *Schema) DefaultAge() int { return s.defaultAge }

// MatchCategory returns the slot of the first rule whose keyword occurs in
// the lowercase text, or the catch-all slot 1 when nothing matches.
func (s *Schema) MatchCategory(text string) int {
	lower := strings.ToLower(text)
	for _, r := range s.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Slot
			}
		}
	}
	return 1
}
