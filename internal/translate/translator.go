// Package translate resolves service attribute names to database column
// names. Resolution is two-stage: a mechanical camel-case to upper-snake
// rule checked against the table's known columns, then the csv override
// table keyed by the original name. A miss on both stages is an error,
// since it means the service and store schemas have drifted apart.
package translate

import (
	"fmt"
	"strings"
	"unicode"

	"ctios/internal/mapping"
)

// UnmappableError reports an attribute name neither the mechanical rule nor
// the override table could resolve to a known column.
type UnmappableError struct {
	Attribute  string
	Mechanical string
}

func (e *UnmappableError) Error() string {
	return fmt.Sprintf("attribute %q cannot be mapped to a database column (mechanical candidate %q not known, no override entry)", e.Attribute, e.Mechanical)
}

// Translator resolves attribute names against a fixed override table.
type Translator struct {
	overrides mapping.AttributeMap
}

// NewTranslator creates a translator using the given override table.
func NewTranslator(overrides mapping.AttributeMap) *Translator {
	return &Translator{overrides: overrides}
}

// Mechanical converts a camel-case attribute name to an upper-snake column
// candidate: a separator is inserted before every internal run of upper-case
// letters, then the whole name is upper-cased (stavDat -> STAV_DAT,
// kodAdresnihoMista -> KOD_ADRESNIHO_MISTA).
func Mechanical(attr string) string {
	var sb strings.Builder
	runes := []rune(attr)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]) {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToUpper(sb.String())
}

// Resolve maps one attribute name to a column name. known holds the current
// column set of the target table, keyed by column name.
func (t *Translator) Resolve(attr string, known map[string]bool) (string, error) {
	candidate := Mechanical(attr)
	if known[candidate] {
		return candidate, nil
	}
	if col, ok := t.overrides[attr]; ok {
		return col, nil
	}
	return "", &UnmappableError{Attribute: attr, Mechanical: candidate}
}
