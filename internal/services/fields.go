// Package services – form fields
//
// This file normalizes the field list a form is created with. The input is
// the builder's JSON export, which describes DOM controls rather than a
// schema: selects report "select-one", a radio group arrives as one entry
// per button, and unnamed controls share label-derived names. Everything the
// builder can emit is accepted; only unknown control types are rejected.
package services

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/formflow-backend/internal/domain"
)

// MaxFormFields caps the number of fields a single form may declare.
const MaxFormFields = 100

// fieldTypes is the builder's input vocabulary.
var fieldTypes = map[string]struct{}{
	"text":     {},
	"email":    {},
	"textarea": {},
	"checkbox": {},
	"select":   {},
	"radio":    {},
	"number":   {},
	"date":     {},
}

// typeAliases maps DOM element types the builder exports to field types.
var typeAliases = map[string]string{
	"select-one":      "select",
	"select-multiple": "select",
}

// submitType is emitted by the builder for its submit button; it is not a field.
const submitType = "submit"

// normalizeFields validates the builder's field list and fills defaults:
//   - type is trimmed and lower-cased; DOM aliases such as "select-one" map
//     to their field type and "submit" entries are dropped.
//   - an empty label becomes "<Type> Field".
//   - an empty name is derived from the label (lower-cased, spaces to "_").
//   - consecutive radio entries sharing a name are one radio group.
//   - a name already taken gets a numeric suffix ("_2", "_3", ...).
func normalizeFields(in []domain.FormField) ([]domain.FormField, error) {
	out := make([]domain.FormField, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	lastRadio := "" // name the previous radio entry asked for

	// Casers are stateful and not safe to share across goroutines.
	titleCaser := cases.Title(language.English)
	lowerCaser := cases.Lower(language.Und)

	for i, f := range in {
		typ := strings.ToLower(strings.TrimSpace(f.Type))
		if alias, ok := typeAliases[typ]; ok {
			typ = alias
		}
		if typ == submitType {
			lastRadio = ""
			continue
		}
		if _, ok := fieldTypes[typ]; !ok {
			return nil, fmt.Errorf("%w: field %d has unsupported type %q", ErrValidation, i+1, f.Type)
		}

		label := collapseSpaces(f.Label)
		if label == "" {
			label = titleCaser.String(typ) + " Field"
		}
		name := collapseSpaces(f.Name)
		if name == "" {
			name = whitespaceRE.ReplaceAllString(lowerCaser.String(label), "_")
		}
		if utf8.RuneCountInString(name) > 100 || utf8.RuneCountInString(label) > 200 {
			return nil, fmt.Errorf("%w: field %d name or label too long", ErrValidation, i+1)
		}
		opts := cleanOptions(f.Options)

		if typ == "radio" && name == lastRadio {
			group := &out[len(out)-1]
			group.Options = appendMissing(group.Options, opts)
			group.Required = group.Required || f.Required
			continue
		}
		lastRadio = ""
		if typ == "radio" {
			lastRadio = name
		}

		out = append(out, domain.FormField{
			Type:        typ,
			Name:        uniqueName(seen, name),
			Label:       label,
			Placeholder: strings.TrimSpace(f.Placeholder),
			Required:    f.Required,
			Options:     opts,
		})
	}

	if len(out) > MaxFormFields {
		return nil, fmt.Errorf("%w: at most %d fields per form", ErrValidation, MaxFormFields)
	}
	return out, nil
}

// uniqueName reserves name in seen, suffixing "_2", "_3", ... when taken.
func uniqueName(seen map[string]struct{}, name string) string {
	candidate := name
	for n := 2; ; n++ {
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = struct{}{}
			return candidate
		}
		candidate = name + "_" + strconv.Itoa(n)
	}
}

// cleanOptions collapses whitespace and drops blank options.
func cleanOptions(in []string) []string {
	var out []string
	for _, o := range in {
		if o = collapseSpaces(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func appendMissing(dst, src []string) []string {
	for _, o := range src {
		if !slices.Contains(dst, o) {
			dst = append(dst, o)
		}
	}
	return dst
}

// collapseSpaces NFC-normalizes s, trims it and collapses inner whitespace.
func collapseSpaces(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
}

// whitespaceRE matches runs of whitespace.
var whitespaceRE = regexp.MustCompile(`\s+`)
