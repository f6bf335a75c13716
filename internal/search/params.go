package search

import (
	"strconv"
	"strings"
)

// Param names accepted by ParseQuery.
const (
	ParamLocation  = "location"
	ParamType      = "type"
	ParamAmenities = "amenities"
	ParamMinPrice  = "min_price"
	ParamMaxPrice  = "max_price"
	ParamGuests    = "guests"
)

// ParamError reports a query parameter that is present but malformed.
type ParamError struct {
	Param string
	Value string
}

func (e *ParamError) Error() string {
	return "invalid search parameter " + e.Param + "=" + e.Value
}

// ParseQuery builds Criteria from query-string values. get returns "" for a
// missing key. Lists are comma separated; blank entries are dropped.
func ParseQuery(get func(key string) string) (Criteria, error) {
	var c Criteria
	if loc := strings.TrimSpace(get(ParamLocation)); loc != "" {
		c.Location = &loc
	}
	c.Types = splitList(get(ParamType))
	c.Amenities = splitList(get(ParamAmenities))

	var err error
	if c.PriceMin, err = parseFloat(ParamMinPrice, get(ParamMinPrice)); err != nil {
		return Criteria{}, err
	}
	if c.PriceMax, err = parseFloat(ParamMaxPrice, get(ParamMaxPrice)); err != nil {
		return Criteria{}, err
	}
	if raw := strings.TrimSpace(get(ParamGuests)); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 {
			return Criteria{}, &ParamError{Param: ParamGuests, Value: raw}
		}
		c.Guests = &n
	}
	if c.PriceMin != nil && c.PriceMax != nil && *c.PriceMin > *c.PriceMax {
		return Criteria{}, &ParamError{Param: ParamMinPrice, Value: get(ParamMinPrice)}
	}
	return c, nil
}

func parseFloat(param, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, &ParamError{Param: param, Value: raw}
	}
	return &v, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
