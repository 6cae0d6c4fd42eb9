// Package config provides configuration loading and validation for the evaluation engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ConsensusConfig holds the tunables of the consensus engine.
// Recommendation bands are configuration, not hardcoded in the engine.
type ConsensusConfig struct {
	HireThreshold     float64 `json:"hire_threshold,omitempty"`     // aggregate score >= this -> hire
	RejectThreshold   float64 `json:"reject_threshold,omitempty"`   // aggregate score <= this -> reject
	MinEvaluations    int     `json:"min_evaluations,omitempty"`    // minimum submitted evaluations required
	DelphiConvergence float64 `json:"delphi_convergence,omitempty"` // agreement level required to terminate Delphi
	DelphiMaxRounds   int     `json:"delphi_max_rounds,omitempty"`  // hard cap on Delphi rounds
}

// OversightConfig holds the tunables of the oversight gate.
type OversightConfig struct {
	ConfidenceFloor         float64  `json:"confidence_floor,omitempty"`           // confidence below this forces oversight
	MandatoryScenarios      []string `json:"mandatory_scenarios,omitempty"`        // scenarios that always require oversight
	RequiredReviewers       int      `json:"required_reviewers,omitempty"`         // responses needed to complete a request
	RequiredQualifications  []string `json:"required_qualifications,omitempty"`    // qualifications checked during assignment
	InitialReviewOffsetHrs  int      `json:"initial_review_offset_hours,omitempty"`
	FinalDecisionOffsetHrs  int      `json:"final_decision_offset_hours,omitempty"`
	EscalationOffsetHrs     int      `json:"escalation_offset_hours,omitempty"`
	EscalationNotifyChannel string   `json:"escalation_notify_channel,omitempty"`
}

// InitialReviewOffset returns the initial-review deadline offset
func (c *OversightConfig) InitialReviewOffset() time.Duration {
	return time.Duration(c.InitialReviewOffsetHrs) * time.Hour
}

// FinalDecisionOffset returns the final-decision deadline offset
func (c *OversightConfig) FinalDecisionOffset() time.Duration {
	return time.Duration(c.FinalDecisionOffsetHrs) * time.Hour
}

// EscalationOffset returns the escalation deadline offset
func (c *OversightConfig) EscalationOffset() time.Duration {
	return time.Duration(c.EscalationOffsetHrs) * time.Hour
}

// TimelineConfig derives session deadlines from the review-timeline policy.
type TimelineConfig struct {
	SessionDeadlineHrs map[string]int `json:"session_deadline_hours,omitempty"` // per session type
	DefaultDeadlineHrs int            `json:"default_deadline_hours,omitempty"`
}

// SessionDeadline returns the deadline offset for the given session type
func (c *TimelineConfig) SessionDeadline(sessionType string) time.Duration {
	if hrs, ok := c.SessionDeadlineHrs[sessionType]; ok {
		return time.Duration(hrs) * time.Hour
	}
	return time.Duration(c.DefaultDeadlineHrs) * time.Hour
}

// Config represents the engine configuration that can be loaded from a JSON file.
// All fields are optional; missing values fall back to defaults.
type Config struct {
	DatabaseURL string          `json:"database_url,omitempty"` // PostgreSQL connection URL; empty selects the in-memory store
	Verbose     bool            `json:"verbose,omitempty"`
	MetricsAddr string          `json:"metrics_addr,omitempty"` // listen address for the Prometheus endpoint
	Consensus   ConsensusConfig `json:"consensus,omitempty"`
	Oversight   OversightConfig `json:"oversight,omitempty"`
	Timeline    TimelineConfig  `json:"timeline,omitempty"`

	// Reviewers maps reviewer UUIDs to the qualifications they hold. It
	// backs the static qualification verifier used by CLI runs.
	Reviewers map[string][]string `json:"reviewers,omitempty"`

	// BiasTerms overrides the built-in flag list of the bias term scorer.
	BiasTerms []string `json:"bias_terms,omitempty"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Consensus: ConsensusConfig{
			HireThreshold:     70,
			RejectThreshold:   40,
			MinEvaluations:    2,
			DelphiConvergence: 0.75,
			DelphiMaxRounds:   3,
		},
		Oversight: OversightConfig{
			ConfidenceFloor:         0.7,
			MandatoryScenarios:      []string{"final_decision"},
			RequiredReviewers:       2,
			InitialReviewOffsetHrs:  24,
			FinalDecisionOffsetHrs:  72,
			EscalationOffsetHrs:     96,
			EscalationNotifyChannel: "oversight-escalations",
		},
		Timeline: TimelineConfig{
			SessionDeadlineHrs: map[string]int{
				"technical_interview":  48,
				"behavioral_interview": 48,
				"panel_review":         72,
				"final_decision":       24,
			},
			DefaultDeadlineHrs: 72,
		},
	}
}

// LoadConfig loads configuration from a JSON file and fills missing values
// from the defaults. Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	merged := cfg.MergeWithDefaults(Default())
	return &merged, nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.MetricsAddr == "" {
		result.MetricsAddr = defaults.MetricsAddr
	}

	if result.Consensus.HireThreshold == 0 {
		result.Consensus.HireThreshold = defaults.Consensus.HireThreshold
	}
	if result.Consensus.RejectThreshold == 0 {
		result.Consensus.RejectThreshold = defaults.Consensus.RejectThreshold
	}
	if result.Consensus.MinEvaluations == 0 {
		result.Consensus.MinEvaluations = defaults.Consensus.MinEvaluations
	}
	if result.Consensus.DelphiConvergence == 0 {
		result.Consensus.DelphiConvergence = defaults.Consensus.DelphiConvergence
	}
	if result.Consensus.DelphiMaxRounds == 0 {
		result.Consensus.DelphiMaxRounds = defaults.Consensus.DelphiMaxRounds
	}

	if result.Oversight.ConfidenceFloor == 0 {
		result.Oversight.ConfidenceFloor = defaults.Oversight.ConfidenceFloor
	}
	if len(result.Oversight.MandatoryScenarios) == 0 {
		result.Oversight.MandatoryScenarios = defaults.Oversight.MandatoryScenarios
	}
	if result.Oversight.RequiredReviewers == 0 {
		result.Oversight.RequiredReviewers = defaults.Oversight.RequiredReviewers
	}
	if len(result.Oversight.RequiredQualifications) == 0 {
		result.Oversight.RequiredQualifications = defaults.Oversight.RequiredQualifications
	}
	if result.Oversight.InitialReviewOffsetHrs == 0 {
		result.Oversight.InitialReviewOffsetHrs = defaults.Oversight.InitialReviewOffsetHrs
	}
	if result.Oversight.FinalDecisionOffsetHrs == 0 {
		result.Oversight.FinalDecisionOffsetHrs = defaults.Oversight.FinalDecisionOffsetHrs
	}
	if result.Oversight.EscalationOffsetHrs == 0 {
		result.Oversight.EscalationOffsetHrs = defaults.Oversight.EscalationOffsetHrs
	}
	if result.Oversight.EscalationNotifyChannel == "" {
		result.Oversight.EscalationNotifyChannel = defaults.Oversight.EscalationNotifyChannel
	}

	if len(result.Timeline.SessionDeadlineHrs) == 0 {
		result.Timeline.SessionDeadlineHrs = defaults.Timeline.SessionDeadlineHrs
	}
	if result.Timeline.DefaultDeadlineHrs == 0 {
		result.Timeline.DefaultDeadlineHrs = defaults.Timeline.DefaultDeadlineHrs
	}

	return result
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Consensus.HireThreshold <= c.Consensus.RejectThreshold {
		return fmt.Errorf("config error: 'hire_threshold' must be greater than 'reject_threshold'")
	}
	if c.Consensus.HireThreshold > 100 || c.Consensus.RejectThreshold < 0 {
		return fmt.Errorf("config error: recommendation bands must lie within [0,100]")
	}
	if c.Consensus.MinEvaluations < 1 {
		return fmt.Errorf("config error: 'min_evaluations' must be at least 1")
	}
	if c.Consensus.DelphiConvergence <= 0 || c.Consensus.DelphiConvergence > 1 {
		return fmt.Errorf("config error: 'delphi_convergence' must be in (0,1]")
	}
	if c.Consensus.DelphiMaxRounds < 1 {
		return fmt.Errorf("config error: 'delphi_max_rounds' must be at least 1")
	}
	if c.Oversight.ConfidenceFloor < 0 || c.Oversight.ConfidenceFloor > 1 {
		return fmt.Errorf("config error: 'confidence_floor' must be in [0,1]")
	}
	if c.Oversight.RequiredReviewers < 1 {
		return fmt.Errorf("config error: 'required_reviewers' must be at least 1")
	}
	if c.Oversight.InitialReviewOffsetHrs < 0 || c.Oversight.FinalDecisionOffsetHrs < 0 || c.Oversight.EscalationOffsetHrs < 0 {
		return fmt.Errorf("config error: oversight deadline offsets must be non-negative")
	}
	return nil
}
