package importController

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	. "policybook/internal/models"
	"policybook/internal/utils"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasesYAML []byte

type aliasTable struct {
	Policy        []string `yaml:"policy"`
	Client        []string `yaml:"client"`
	Salesperson   []string `yaml:"salesperson"`
	InsuranceType []string `yaml:"insuranceType"`
	ValidFrom     []string `yaml:"validFrom"`
	ValidUntil    []string `yaml:"validUntil"`
	Registration  []string `yaml:"registration"`
	Premium       []string `yaml:"premium"`
	Payout        []string `yaml:"payout"`
	LastUpdated   []string `yaml:"lastUpdated"`
}

func parseAliases(data []byte) (aliasTable, error) {
	var table aliasTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return aliasTable{}, fmt.Errorf("parse alias table: %w", err)
	}
	if len(table.Policy) == 0 {
		return aliasTable{}, errors.New("alias table has no policy column names")
	}
	return table, nil
}

var defaultAliases = func() aliasTable {
	table, err := parseAliases(aliasesYAML)
	if err != nil {
		panic(err)
	}
	return table
}()

var errNonScalar = errors.New("value is not a single cell")

// row is one spreadsheet row with lower-cased headers.
type row map[string]any

func newRow(raw map[string]any) row {
	r := make(row, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, exists := r[key]; !exists {
			r[key] = v
		}
	}
	return r
}

// lookup returns the value of the first alias present and non-empty.
func (r row) lookup(aliases []string) (any, bool) {
	for _, alias := range aliases {
		v, ok := r[strings.ToLower(alias)]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// contractRow is a row after alias resolution and coercion.
type contractRow struct {
	PolicyNo       string
	ClientName     string
	Salesperson    string
	InsuranceType  string
	RegistrationNr string
	ValidFrom      time.Time
	ValidUntil     time.Time
	YearlyPremium  float64
	PayoutValue    float64
	LastUpdated    time.Time
}

type normalizer struct {
	aliases aliasTable
	dates   *utils.DateValidator
}

// normalize resolves and coerces one row. ok is false when the row has no
// policy number and should be skipped.
func (n normalizer) normalize(raw map[string]any, now time.Time) (contractRow, bool, error) {
	r := newRow(raw)
	today := DateOnly(now)

	policyValue, found := r.lookup(n.aliases.Policy)
	if !found {
		return contractRow{}, false, nil
	}
	policyNo, err := toText(policyValue)
	if err != nil {
		return contractRow{}, false, fmt.Errorf("policy number: %w", err)
	}
	if policyNo == "" {
		return contractRow{}, false, nil
	}

	out := contractRow{PolicyNo: policyNo}

	texts := []struct {
		dst     *string
		aliases []string
		name    string
	}{
		{&out.ClientName, n.aliases.Client, "client"},
		{&out.Salesperson, n.aliases.Salesperson, "salesperson"},
		{&out.InsuranceType, n.aliases.InsuranceType, "insurance type"},
		{&out.RegistrationNr, n.aliases.Registration, "registration number"},
	}
	for _, field := range texts {
		v, _ := r.lookup(field.aliases)
		if *field.dst, err = toText(v); err != nil {
			return contractRow{}, false, fmt.Errorf("%s: %w", field.name, err)
		}
	}

	amounts := []struct {
		dst     *float64
		aliases []string
		name    string
	}{
		{&out.YearlyPremium, n.aliases.Premium, "yearly premium"},
		{&out.PayoutValue, n.aliases.Payout, "payout value"},
	}
	for _, field := range amounts {
		v, _ := r.lookup(field.aliases)
		if *field.dst, err = toAmount(v); err != nil {
			return contractRow{}, false, fmt.Errorf("%s: %w", field.name, err)
		}
	}

	out.ValidFrom = n.toDate(r, n.aliases.ValidFrom, today)
	out.ValidUntil = n.toDate(r, n.aliases.ValidUntil, today)
	out.LastUpdated = now.UTC()
	if v, ok := r.lookup(n.aliases.LastUpdated); ok {
		if parsed, ok := n.parseDate(v); ok {
			out.LastUpdated = parsed
		}
	}

	return out, true, nil
}

func (n normalizer) toDate(r row, aliases []string, fallback time.Time) time.Time {
	v, ok := r.lookup(aliases)
	if !ok {
		return fallback
	}
	if parsed, ok := n.parseDate(v); ok {
		return parsed
	}
	return fallback
}

// parseDate accepts spreadsheet serial numbers and date strings.
func (n normalizer) parseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return DateOnly(val), !val.IsZero()
	case string:
		return n.dates.Parse(val)
	}

	if f, ok := toFloat(v); ok {
		return utils.FromSerialDate(f)
	}
	return time.Time{}, false
}

func toText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	}

	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("%w (%T)", errNonScalar, v)
}

// toAmount coerces a money cell. Unreadable text becomes 0; negative values
// and non-scalar cells are errors.
func toAmount(v any) (float64, error) {
	var amount float64

	switch val := v.(type) {
	case nil:
		return 0, nil
	case bool:
		return 0, nil
	case string:
		amount = parseAmountText(val)
	default:
		f, ok := toFloat(v)
		if !ok {
			return 0, fmt.Errorf("%w (%T)", errNonScalar, v)
		}
		amount = f
	}

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, nil
	}
	if amount < 0 {
		return 0, fmt.Errorf("negative amount %v", amount)
	}
	return amount, nil
}

// parseAmountText reads "1 234,56 €", "$1,234.50" and similar.
func parseAmountText(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case strings.Count(cleaned, ",") == 1:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case lastComma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return amount
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
