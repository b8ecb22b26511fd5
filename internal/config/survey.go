package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/transects/internal/survey/aggregate"
	"github.com/banshee-data/transects/internal/survey/depth"
	"github.com/banshee-data/transects/internal/survey/reconstruct"
	"github.com/banshee-data/transects/internal/survey/transect"
	"github.com/banshee-data/transects/internal/units"
)

// DefaultConfigPath is the canonical defaults file, relative to the repo root.
const DefaultConfigPath = "config/survey.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Rate fill modes accepted by rate_fill.
const (
	RateFillZero = "zero"
	RateFillHold = "hold"
)

// SurveyConfig holds reconstruction tuning. Nil fields fall back to the
// defaults returned by the Get* accessors, so partial files are safe.
type SurveyConfig struct {
	MinStepM           *float64 `json:"min_step_m,omitempty" yaml:"min_step_m,omitempty"`
	JumpThresholdM     *float64 `json:"jump_threshold_m,omitempty" yaml:"jump_threshold_m,omitempty"`
	AuxDepthThresholdM *float64 `json:"aux_depth_threshold_m,omitempty" yaml:"aux_depth_threshold_m,omitempty"`
	DVLScale           *float64 `json:"dvl_scale,omitempty" yaml:"dvl_scale,omitempty"`

	Timezone *string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	RateFill *string `json:"rate_fill,omitempty" yaml:"rate_fill,omitempty"`

	// Camera footprint reference frame.
	ReferenceWidthM *float64 `json:"reference_width_m,omitempty" yaml:"reference_width_m,omitempty"`
	ReferenceAltM   *float64 `json:"reference_alt_m,omitempty" yaml:"reference_alt_m,omitempty"`
	ReferenceAreaM2 *float64 `json:"reference_area_m2,omitempty" yaml:"reference_area_m2,omitempty"`

	Site      *string           `json:"site,omitempty" yaml:"site,omitempty"`
	Transects []transect.Bounds `json:"transects,omitempty" yaml:"transects,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptySurveyConfig returns a config with every field unset.
func EmptySurveyConfig() *SurveyConfig {
	return &SurveyConfig{}
}

// DefaultSurveyConfig returns a config with every field set to its default.
func DefaultSurveyConfig() *SurveyConfig {
	return EmptySurveyConfig().Effective()
}

// LoadSurveyConfig reads a .json, .yaml or .yml file and validates it.
func LoadSurveyConfig(path string) (*SurveyConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySurveyConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func finite(name string, v *float64) error {
	if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
		return fmt.Errorf("%s must be finite", name)
	}
	return nil
}

// Validate checks field ranges and cross-field constraints.
func (c *SurveyConfig) Validate() error {
	for name, v := range map[string]*float64{
		"min_step_m":            c.MinStepM,
		"jump_threshold_m":      c.JumpThresholdM,
		"aux_depth_threshold_m": c.AuxDepthThresholdM,
		"dvl_scale":             c.DVLScale,
		"reference_width_m":     c.ReferenceWidthM,
		"reference_alt_m":       c.ReferenceAltM,
		"reference_area_m2":     c.ReferenceAreaM2,
	} {
		if err := finite(name, v); err != nil {
			return err
		}
	}

	if c.GetMinStepM() < 0 {
		return fmt.Errorf("min_step_m must be non-negative, got %g", c.GetMinStepM())
	}
	if c.GetJumpThresholdM() <= c.GetMinStepM() {
		return fmt.Errorf("jump_threshold_m (%g) must exceed min_step_m (%g)", c.GetJumpThresholdM(), c.GetMinStepM())
	}
	if c.GetDVLScale() <= 0 {
		return fmt.Errorf("dvl_scale must be positive, got %g", c.GetDVLScale())
	}
	if c.GetReferenceAltM() <= 0 {
		return fmt.Errorf("reference_alt_m must be positive, got %g", c.GetReferenceAltM())
	}
	if c.GetReferenceWidthM() < 0 || c.GetReferenceAreaM2() < 0 {
		return fmt.Errorf("reference footprint must be non-negative")
	}
	if !units.IsTimezoneValid(c.GetTimezone()) {
		return fmt.Errorf("invalid timezone %q", c.GetTimezone())
	}
	if rf := c.GetRateFill(); rf != RateFillZero && rf != RateFillHold {
		return fmt.Errorf("rate_fill must be %q or %q, got %q", RateFillZero, RateFillHold, rf)
	}
	return nil
}

// GetMinStepM returns min_step_m or 0.02.
func (c *SurveyConfig) GetMinStepM() float64 {
	if c.MinStepM == nil {
		return 0.02
	}
	return *c.MinStepM
}

// GetJumpThresholdM returns jump_threshold_m or 5.
func (c *SurveyConfig) GetJumpThresholdM() float64 {
	if c.JumpThresholdM == nil {
		return 5.0
	}
	return *c.JumpThresholdM
}

// GetAuxDepthThresholdM returns aux_depth_threshold_m or -0.5.
func (c *SurveyConfig) GetAuxDepthThresholdM() float64 {
	if c.AuxDepthThresholdM == nil {
		return depth.DefaultThreshold
	}
	return *c.AuxDepthThresholdM
}

// GetDVLScale returns dvl_scale or 1.
func (c *SurveyConfig) GetDVLScale() float64 {
	if c.DVLScale == nil {
		return 1.0
	}
	return *c.DVLScale
}

// GetTimezone returns timezone or units.DefaultTimezone.
func (c *SurveyConfig) GetTimezone() string {
	if c.Timezone == nil || *c.Timezone == "" {
		return units.DefaultTimezone
	}
	return *c.Timezone
}

// GetRateFill returns rate_fill or "zero".
func (c *SurveyConfig) GetRateFill() string {
	if c.RateFill == nil || *c.RateFill == "" {
		return RateFillZero
	}
	return *c.RateFill
}

func (c *SurveyConfig) GetReferenceWidthM() float64 {
	if c.ReferenceWidthM == nil {
		return 1.15
	}
	return *c.ReferenceWidthM
}

func (c *SurveyConfig) GetReferenceAltM() float64 {
	if c.ReferenceAltM == nil {
		return 0.66
	}
	return *c.ReferenceAltM
}

func (c *SurveyConfig) GetReferenceAreaM2() float64 {
	if c.ReferenceAreaM2 == nil {
		return 0.9545
	}
	return *c.ReferenceAreaM2
}

// GetSite returns the site name, or "".
func (c *SurveyConfig) GetSite() string {
	if c.Site == nil {
		return ""
	}
	return *c.Site
}

// Effective returns a copy with every field resolved to its effective value.
func (c *SurveyConfig) Effective() *SurveyConfig {
	return &SurveyConfig{
		MinStepM:           ptrFloat64(c.GetMinStepM()),
		JumpThresholdM:     ptrFloat64(c.GetJumpThresholdM()),
		AuxDepthThresholdM: ptrFloat64(c.GetAuxDepthThresholdM()),
		DVLScale:           ptrFloat64(c.GetDVLScale()),
		Timezone:           ptrString(c.GetTimezone()),
		RateFill:           ptrString(c.GetRateFill()),
		ReferenceWidthM:    ptrFloat64(c.GetReferenceWidthM()),
		ReferenceAltM:      ptrFloat64(c.GetReferenceAltM()),
		ReferenceAreaM2:    ptrFloat64(c.GetReferenceAreaM2()),
		Site:               ptrString(c.GetSite()),
		Transects:          append([]transect.Bounds(nil), c.Transects...),
	}
}

// AggregateConfig builds the aggregator settings.
func (c *SurveyConfig) AggregateConfig() (aggregate.Config, error) {
	loc, err := units.LoadTimezone(c.GetTimezone())
	if err != nil {
		return aggregate.Config{}, err
	}
	fill := aggregate.FillZero
	if c.GetRateFill() == RateFillHold {
		fill = aggregate.FillHold
	}
	return aggregate.Config{
		Location: loc,
		RateFill: fill,
		Footprint: aggregate.Footprint{
			RefWidthM: c.GetReferenceWidthM(),
			RefAltM:   c.GetReferenceAltM(),
			RefAreaM2: c.GetReferenceAreaM2(),
		},
	}, nil
}

// ReconstructConfig builds the reconstructor thresholds.
func (c *SurveyConfig) ReconstructConfig() reconstruct.Config {
	return reconstruct.Config{
		MinStepM:       c.GetMinStepM(),
		JumpThresholdM: c.GetJumpThresholdM(),
		DVLScale:       c.GetDVLScale(),
	}
}
