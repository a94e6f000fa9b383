package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

type locationArgs struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Radius    float64 `json:"radius" validate:"gt=0"`
	Cuisine   string  `json:"cuisine" validate:"max=64"`
	Limit     int     `json:"limit"`
}

type addressArgs struct {
	Address string  `json:"address" validate:"required,max=512"`
	Radius  float64 `json:"radius" validate:"gt=0"`
	Cuisine string  `json:"cuisine" validate:"max=64"`
	Limit   int     `json:"limit"`
}

type detailsArgs struct {
	PoiID string `json:"poi_id" validate:"required,max=64"`
}

type queryArgs struct {
	Query     string   `json:"query" validate:"required,max=256"`
	Address   string   `json:"address" validate:"max=512"`
	Latitude  *float64 `json:"latitude" validate:"required_with=Longitude"`
	Longitude *float64 `json:"longitude" validate:"required_with=Latitude"`
	Radius    float64  `json:"radius"`
	Limit     int      `json:"limit"`
}

// newValidator reports field names by their json argument name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// args reads typed values out of a raw argument map. The first failure is
// kept and later reads become no-ops.
type args struct {
	op  string
	raw map[string]any
	err error
}

func newArgs(op string, raw map[string]any) *args {
	return &args{op: op, raw: raw}
}

func (a *args) get(name string) (any, bool) {
	v, ok := a.raw[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// has reports whether the named argument was sent with a non-null value.
func (a *args) has(name string) bool {
	_, ok := a.get(name)
	return ok
}

func (a *args) fail(format string, v ...any) {
	if a.err == nil {
		a.err = lookup.Errorf(lookup.KindInvalidArgument, a.op, format, v...)
	}
}

// String returns the named string argument, or "" when absent.
func (a *args) String(name string) string {
	v, ok := a.get(name)
	if !ok || a.err != nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		a.fail("%s must be a string", name)
		return ""
	}
	return s
}

// Number returns the named numeric argument, or def when absent. JSON
// numbers and numeric strings are accepted.
func (a *args) Number(name string, def float64) float64 {
	v, ok := a.get(name)
	if !ok || a.err != nil {
		return def
	}
	f, err := toFloat(v)
	if err != nil {
		a.fail("%s must be a number", name)
		return def
	}
	return f
}

// OptionalNumber returns nil when the argument is absent.
func (a *args) OptionalNumber(name string) *float64 {
	if _, ok := a.get(name); !ok {
		return nil
	}
	f := a.Number(name, 0)
	if a.err != nil {
		return nil
	}
	return &f
}

// Int returns the named integer argument, or def when absent.
func (a *args) Int(name string, def int) int {
	v, ok := a.get(name)
	if !ok || a.err != nil {
		return def
	}
	f, err := toFloat(v)
	if err != nil || math.IsNaN(f) {
		a.fail("%s must be an integer", name)
		return def
	}
	// Saturate instead of letting huge values wrap around.
	return int(math.Max(math.MinInt32, math.Min(math.MaxInt32, f)))
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case bool:
		return 0, fmt.Errorf("unexpected bool")
	case json.Number:
		return t.Float64()
	case string:
		return cast.ToFloat64E(strings.TrimSpace(t))
	}
	return cast.ToFloat64E(v)
}

// validate runs struct validation on decoded arguments and converts the
// first failure into an InvalidArgument error.
func validate(v *validator.Validate, op string, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return lookup.Errorf(lookup.KindInvalidArgument, op, "invalid arguments: %v", err)
	}
	return lookup.Errorf(lookup.KindInvalidArgument, op, "%s", describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", fe.Field(), strings.ToLower(fe.Param()))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range: %v", fe.Field(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// clampLimit maps an absent or zero limit to the default and keeps the
// rest within [1, max].
func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return lookup.DefaultLimit
	case limit < 1:
		return 1
	case limit > lookup.DefaultMaxLimit:
		return lookup.DefaultMaxLimit
	}
	return limit
}
