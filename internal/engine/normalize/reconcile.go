package normalize

import (
	"strings"
	"unicode"

	"github.com/crimson-sun/riskscan/internal/engine/schema"
	"github.com/crimson-sun/riskscan/internal/model"
)

// Reconcile copies each alias source column onto its canonical name when the
// canonical column is not already present. Sources are retained. Aliases are
// applied in table order, so the first applicable alias wins a shared target.
// Returns the canonical names that were populated.
func Reconcile(r model.Record, aliases []schema.Alias) (model.Record, []string) {
	out := r.Clone()
	var mapped []string
	for _, a := range aliases {
		v, ok := out[a.Source]
		if !ok || out.Has(a.Target) {
			continue
		}
		out[a.Target] = v
		mapped = append(mapped, a.Target)
	}
	return out, mapped
}

// IsArtifactColumn reports whether name is a spreadsheet export artifact:
// an "Unnamed" index column or a column named only with digits.
func IsArtifactColumn(name string) bool {
	if strings.Contains(name, "Unnamed") {
		return true
	}
	// Known export quirk; also covered by the all-digits rule.
	if name == "6006" {
		return true
	}
	return isAllDigits(name)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Prune drops artifact columns. Returns the dropped names.
func Prune(r model.Record) (model.Record, []string) {
	out := make(model.Record, len(r))
	var dropped []string
	for name, v := range r {
		if IsArtifactColumn(name) {
			dropped = append(dropped, name)
			continue
		}
		out[name] = v
	}
	return out, dropped
}
