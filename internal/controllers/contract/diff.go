package contractController

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	. "policybook/internal/models"
)

const (
	diffDateLayout = "2006-01-02"
	diffMoneyFmt   = "%.2f"
)

type diffField struct {
	label string
	value func(Contract) string
	// exact is consulted when value renders two different amounts alike.
	exact func(Contract) string
}

// Order here is the order lines appear in the audit details.
var diffFields = []diffField{
	{label: "Client", value: func(c Contract) string { return c.ClientName }},
	{label: "Salesperson", value: func(c Contract) string { return c.Salesperson }},
	{label: "Insurance type", value: func(c Contract) string { return c.InsuranceType }},
	{label: "Policy number", value: func(c Contract) string { return c.PolicyNo }},
	{label: "Valid from", value: func(c Contract) string { return formatDate(c.ValidFrom) }},
	{label: "Valid until", value: func(c Contract) string { return formatDate(c.ValidUntil) }},
	{label: "Registration number", value: func(c Contract) string { return c.RegistrationNr }},
	{
		label: "Yearly premium",
		value: func(c Contract) string { return formatMoney(c.YearlyPremium) },
		exact: func(c Contract) string { return formatExact(c.YearlyPremium) },
	},
	{
		label: "Payout value",
		value: func(c Contract) string { return formatMoney(c.PayoutValue) },
		exact: func(c Contract) string { return formatExact(c.PayoutValue) },
	},
}

// Diff lists the human-readable changes between two versions of a contract.
// An empty result means the update changes nothing worth auditing.
func Diff(old, new Contract) []string {
	var changes []string

	for _, field := range diffFields {
		before, after := field.value(old), field.value(new)
		if before == after && field.exact != nil {
			before, after = field.exact(old), field.exact(new)
		}
		if before != after {
			changes = append(changes, fmt.Sprintf("%s: %s -> %s", field.label, before, after))
		}
	}

	if line, changed := diffNotes(old.Notes, new.Notes); changed {
		changes = append(changes, line)
	}

	return changes
}

// diffNotes reports at most one line for the whole note list.
func diffNotes(old, new []Note) (string, bool) {
	switch {
	case len(new) > len(old):
		return fmt.Sprintf("added a note: %q", new[len(new)-1].Text), true
	case len(new) < len(old):
		return "removed a note", true
	case len(old) == 0:
		return "", false
	case !reflect.DeepEqual(noteTexts(old), noteTexts(new)):
		return "notes updated", true
	default:
		return "", false
	}
}

// noteTexts drops timestamps so a JSON round-trip of the same notes compares
// equal.
func noteTexts(notes []Note) []string {
	texts := make([]string, 0, len(notes)*2)
	for _, n := range notes {
		texts = append(texts, n.Text, n.Author)
	}
	return texts
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(diffDateLayout)
}

func formatMoney(v float64) string {
	return fmt.Sprintf(diffMoneyFmt, v)
}

func formatExact(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
