package products

import (
	"regexp"
	"strings"

	"catalog/internal/apperr"

	"github.com/shopspring/decimal"
)

var decimalCommaSuffix = regexp.MustCompile(`,\d{1,2}$`)

// Upper bounds of the NUMERIC(12,2) price and NUMERIC(10,2) measure columns.
var (
	maxPrice   = decimal.RequireFromString("9999999999.99")
	maxMeasure = decimal.RequireFromString("99999999.99")
)

// NormalizePrice strips thousands separators from a locale-formatted amount
// and parses it. When both '.' and ',' appear the later one is the decimal
// separator. A lone ',' is decimal only when followed by one or two trailing
// digits; a repeated '.' is a thousands separator.
//
//	"1.250,00" → 1250.00
//	"1,250.00" → 1250.00
//	"1,250"    → 1250
//	"12,5"     → 12.5
func NormalizePrice(raw string) (decimal.Decimal, error) {
	const op = "products.normalizePrice"
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if s == "" {
		return decimal.Decimal{}, apperr.Invalid(op, "price is required")
	}

	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && decimalCommaSuffix.MatchString(s) {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, apperr.Errorf(apperr.EINVALID, op, "invalid price %q", raw)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, apperr.Errorf(apperr.EINVALID, op, "price must not be negative")
	}
	d = d.Round(2)
	if d.GreaterThan(maxPrice) {
		return decimal.Decimal{}, apperr.Errorf(apperr.EINVALID, op, "price must not exceed %s", maxPrice.StringFixed(2))
	}
	return d, nil
}

// parseMeasure parses a non-negative dimension value.
func parseMeasure(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, apperr.Errorf(apperr.EINVALID, "products.dimensions", "invalid %s %q", field, raw)
	}
	d = d.Round(2)
	if d.GreaterThan(maxMeasure) {
		return decimal.Decimal{}, apperr.Errorf(apperr.EINVALID, "products.dimensions", "%s must not exceed %s", field, maxMeasure.StringFixed(2))
	}
	return d, nil
}

func parseDimensions(in *DimensionsInput) (*Dimensions, error) {
	if in == nil {
		return nil, nil
	}
	var (
		d   = &Dimensions{Unit: in.Unit}
		err error
	)
	if d.Length, err = parseMeasure("length", in.Length); err != nil {
		return nil, err
	}
	if d.Width, err = parseMeasure("width", in.Width); err != nil {
		return nil, err
	}
	if d.Height, err = parseMeasure("height", in.Height); err != nil {
		return nil, err
	}
	if in.Depth != nil && strings.TrimSpace(*in.Depth) != "" {
		v, err := parseMeasure("depth", *in.Depth)
		if err != nil {
			return nil, err
		}
		d.Depth = &v
	}
	if in.Diameter != nil && strings.TrimSpace(*in.Diameter) != "" {
		v, err := parseMeasure("diameter", *in.Diameter)
		if err != nil {
			return nil, err
		}
		d.Diameter = &v
	}
	switch d.Unit {
	case UnitCentimeter, UnitInch, UnitMillimeter, UnitMeter:
	default:
		return nil, apperr.Errorf(apperr.EINVALID, "products.dimensions", "invalid unit %q", in.Unit)
	}
	return d, nil
}
