// Package provision captures runtime settings from a human through a portal
// of five string fields and persists them only when the portal reports a
// completed submission.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/flavioheleno/max7219/dst"
	"github.com/flavioheleno/max7219/settings"
)

// Field keys as presented by a portal.
const (
	FieldUTCOffset  = "utc_offset"
	FieldObserveDST = "observe_dst"
	FieldUse12Hour  = "use_12h"
	FieldDSTRule    = "dst_rule"
	FieldDSTExtra   = "dst_extra_hours"
)

var (
	// ErrNoSubmission means the portal closed without the user saving
	// anything. The stored settings stay in effect.
	ErrNoSubmission = errors.New("provision: no submission")

	ErrInvalidField = errors.New("provision: invalid field")
)

// Params are the raw field values.
type Params struct {
	UTCOffset  string `yaml:"utc_offset" koanf:"utcoffset"`
	ObserveDST string `yaml:"observe_dst" koanf:"observedst"`
	Use12Hour  string `yaml:"use_12h" koanf:"use12h"`
	DSTRule    string `yaml:"dst_rule" koanf:"dstrule"`
	DSTExtra   string `yaml:"dst_extra_hours" koanf:"dstextrahours"`
}

// Empty reports whether no field is set.
func (p Params) Empty() bool {
	return p == Params{}
}

// FromSettings renders s as field values, used to prefill a portal.
func FromSettings(s settings.RuntimeSettings) Params {
	return Params{
		UTCOffset:  strconv.FormatFloat(float64(s.UTCOffsetHours), 'f', -1, 32),
		ObserveDST: strconv.FormatBool(s.ObserveDST),
		Use12Hour:  strconv.FormatBool(s.Use12Hour),
		DSTRule:    s.DSTRule.String(),
		DSTExtra:   strconv.FormatFloat(float64(s.DSTExtraHours), 'f', -1, 32),
	}
}

// Parse converts field values into validated settings. The first invalid
// field is reported; nothing is partially applied.
func Parse(p Params) (settings.RuntimeSettings, error) {
	var s settings.RuntimeSettings
	var err error

	if s.UTCOffsetHours, err = parseHours(FieldUTCOffset, p.UTCOffset); err != nil {
		return settings.RuntimeSettings{}, err
	}
	if s.ObserveDST, err = parseBool(FieldObserveDST, p.ObserveDST); err != nil {
		return settings.RuntimeSettings{}, err
	}
	if s.Use12Hour, err = parseBool(FieldUse12Hour, p.Use12Hour); err != nil {
		return settings.RuntimeSettings{}, err
	}
	if s.DSTRule, err = dst.ParseRule(p.DSTRule); err != nil {
		return settings.RuntimeSettings{}, fmt.Errorf("%w %s: %w", ErrInvalidField, FieldDSTRule, err)
	}
	if s.DSTExtraHours, err = parseHours(FieldDSTExtra, p.DSTExtra); err != nil {
		return settings.RuntimeSettings{}, err
	}

	if err := s.Validate(); err != nil {
		return settings.RuntimeSettings{}, fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	return s, nil
}

func parseHours(field, v string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %q", ErrInvalidField, field, v)
	}
	return float32(f), nil
}

func parseBool(field, v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("%w %s: %q", ErrInvalidField, field, v)
}

// Portal presents the fields to a human and returns the submitted values.
// It returns ErrNoSubmission when the user leaves without saving.
type Portal interface {
	Collect(ctx context.Context, current Params) (Params, error)
}

// Static is a Portal answering from fixed values, typically a config block.
// Empty values mean nothing was submitted.
type Static struct {
	Params Params
}

// Collect returns the configured values.
func (s Static) Collect(ctx context.Context, _ Params) (Params, error) {
	if err := ctx.Err(); err != nil {
		return Params{}, err
	}
	if s.Params.Empty() {
		return Params{}, ErrNoSubmission
	}
	return s.Params, nil
}

// Session gates persistence on a completed submission.
type Session struct {
	store     settings.Store
	logger    *slog.Logger
	completed bool
	result    settings.RuntimeSettings
}

// NewSession starts a session writing to store.
func NewSession(store settings.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, logger: logger}
}

// Complete is the completion callback: it parses p and persists the result.
// Invalid values are rejected and nothing is written.
func (s *Session) Complete(p Params) error {
	rs, err := Parse(p)
	if err != nil {
		s.logger.Warn("provisioning rejected", "error", err)
		return err
	}
	if err := settings.Save(s.store, rs); err != nil {
		return fmt.Errorf("provision: persist: %w", err)
	}
	s.completed = true
	s.result = rs
	s.logger.Info("provisioning saved", "settings", rs)
	return nil
}

// Finish returns the submitted settings and whether a submission completed.
func (s *Session) Finish() (settings.RuntimeSettings, bool) {
	return s.result, s.completed
}

// Run collects values from portal within ctx and completes the session.
// When nothing valid is submitted current is returned unchanged and the store
// is not touched. Any other failure, including ctx expiring, is returned.
func Run(ctx context.Context, portal Portal, sess *Session, current settings.RuntimeSettings) (settings.RuntimeSettings, error) {
	p, err := portal.Collect(ctx, FromSettings(current))
	if errors.Is(err, ErrNoSubmission) {
		sess.logger.Info("no provisioning submission, keeping stored settings")
		return current, nil
	}
	if err != nil {
		return current, fmt.Errorf("provision: portal: %w", err)
	}
	if err := sess.Complete(p); err != nil {
		if errors.Is(err, ErrInvalidField) {
			return current, nil
		}
		return current, err
	}
	rs, _ := sess.Finish()
	return rs, nil
}
