package grading

import (
	"fmt"
	"maps"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Params is the effective parameter set for one question: global parameters
// with the question's metadata entries folded over them in order.
type Params struct {
	ThreshLowVal  float64 `mapstructure:"threshlow_val"`
	ThreshHighVal float64 `mapstructure:"threshhigh_val"`

	Normalize     bool    `mapstructure:"normalize"`
	NormalizeLow  float64 `mapstructure:"normalize_low"`
	NormalizeHigh float64 `mapstructure:"normalize_high"`

	// code
	AllowedLibs    string        `mapstructure:"allowed_libs"`
	DisallowedLibs string        `mapstructure:"disallowed_libs"`
	ImportLibs     bool          `mapstructure:"import_libs"`
	ImportAttempts int           `mapstructure:"import_attempts"`
	CodeNames      []string      `mapstructure:"code_names"`
	CodeTypes      []string      `mapstructure:"code_types"`
	CodeTimeout    time.Duration `mapstructure:"code_timeout"`

	// data
	Columns         []string `mapstructure:"columns"`
	ErrorFuncs      []string `mapstructure:"error_funcs"`
	SumPointsMethod string   `mapstructure:"sum_points_method"`
	Extension       string   `mapstructure:"extension"`

	ForceDownload bool `mapstructure:"force_download"`

	Extra map[string]any `mapstructure:",remain"`
}

// DefaultParams returns the parameter defaults used before any layer applies.
func DefaultParams() Params {
	return Params{
		ThreshLowVal:    0,
		ThreshHighVal:   100,
		NormalizeLow:    0,
		NormalizeHigh:   100,
		AllowedLibs:     "any",
		ImportAttempts:  3,
		CodeNames:       []string{"foo"},
		CodeTypes:       []string{"function"},
		CodeTimeout:     30 * time.Second,
		SumPointsMethod: "mean",
		Extension:       "csv",
	}
}

// ResolveParams folds metadata over global (later entries win) and decodes
// the result. Neither input is modified.
func ResolveParams(global map[string]any, metadata []map[string]any) (Params, error) {
	merged := make(map[string]any, len(global))
	maps.Copy(merged, global)
	for _, entry := range metadata {
		maps.Copy(merged, entry)
	}

	p := DefaultParams()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           &p,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return Params{}, err
	}
	if err := dec.Decode(merged); err != nil {
		return Params{}, fmt.Errorf("resolve params: %w", err)
	}
	return p, nil
}

// secondsToDurationHook lets code_timeout be given as a bare number of seconds.
func secondsToDurationHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case uint64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second)), nil
		}
	}
	return data, nil
}
