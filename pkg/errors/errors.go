// Unified error handling for the show compiler
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Structural errors - abort the compilation run
	ErrPlanEmpty        ErrorCode = "PLAN_EMPTY"
	ErrPlanSection      ErrorCode = "PLAN_SECTION"
	ErrTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrTemplateLoad     ErrorCode = "TEMPLATE_LOAD"
	ErrTemplateInvalid  ErrorCode = "TEMPLATE_INVALID"
	ErrPresetNotFound   ErrorCode = "PRESET_NOT_FOUND"
	ErrTimingMalformed  ErrorCode = "TIMING_MALFORMED"
	ErrRigReference     ErrorCode = "RIG_REFERENCE"
	ErrRepeatContract   ErrorCode = "REPEAT_CONTRACT"

	// Resolution errors - the offending instruction is skipped
	ErrHandlerNotFound  ErrorCode = "HANDLER_NOT_FOUND"
	ErrPatternUnknown   ErrorCode = "PATTERN_UNKNOWN"
	ErrChannelMissing   ErrorCode = "CHANNEL_MISSING"
	ErrTargetUnresolved ErrorCode = "TARGET_UNRESOLVED"

	// Advisory codes - surfaced as warnings, never raised
	ErrPhysicsSpeed   ErrorCode = "PHYSICS_SPEED"
	ErrPhysicsAccel   ErrorCode = "PHYSICS_ACCEL"
	ErrPhysicsSettle  ErrorCode = "PHYSICS_SETTLE"
	ErrLoopContinuity ErrorCode = "LOOP_CONTINUITY"
	ErrDynamicRange   ErrorCode = "DYNAMIC_RANGE"
)

// ShowError is the unified error type for the compiler
type ShowError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Template is the template id involved (if applicable)
	Template string

	// Step is the step id involved (if applicable)
	Step string

	// Fixture is the fixture id involved (if applicable)
	Fixture string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *ShowError) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(string(e.Code))
	sb.WriteString("]")
	if e.Template != "" {
		sb.WriteString(" template=")
		sb.WriteString(e.Template)
	}
	if e.Step != "" {
		sb.WriteString(" step=")
		sb.WriteString(e.Step)
	}
	if e.Fixture != "" {
		sb.WriteString(" fixture=")
		sb.WriteString(e.Fixture)
	}
	sb.WriteString(" ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error
func (e *ShowError) Unwrap() error {
	return e.Err
}

// SetTemplate sets the template id
func (e *ShowError) SetTemplate(id string) *ShowError {
	e.Template = id
	return e
}

// SetStep sets the step id
func (e *ShowError) SetStep(id string) *ShowError {
	e.Step = id
	return e
}

// SetFixture sets the fixture id
func (e *ShowError) SetFixture(id string) *ShowError {
	e.Fixture = id
	return e
}

// SetContext adds additional context
func (e *ShowError) SetContext(key string, value interface{}) *ShowError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new ShowError
func New(code ErrorCode, message string) *ShowError {
	return &ShowError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *ShowError {
	return &ShowError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Structural errors

// PlanEmptyError creates an error for an empty choreography plan
func PlanEmptyError() *ShowError {
	return New(ErrPlanEmpty, "choreography plan has no sections")
}

// PlanSectionError creates an error for a malformed plan section
func PlanSectionError(section string, reason string) *ShowError {
	return New(ErrPlanSection, fmt.Sprintf("section '%s': %s", section, reason))
}

// TemplateNotFoundError creates an error for a missing template
func TemplateNotFoundError(id string) *ShowError {
	return New(ErrTemplateNotFound, fmt.Sprintf("template '%s' not found in library", id)).
		SetTemplate(id)
}

// TemplateLoadError creates an error for a template that could not be read or parsed
func TemplateLoadError(id string, err error) *ShowError {
	return Wrap(err, ErrTemplateLoad, fmt.Sprintf("failed to load template '%s'", id)).
		SetTemplate(id)
}

// TemplateInvalidError creates an error for template content that fails validation
func TemplateInvalidError(id string, reason string) *ShowError {
	return New(ErrTemplateInvalid, reason).SetTemplate(id)
}

// PresetNotFoundError creates an error for an unknown preset id on a template
func PresetNotFoundError(templateID, presetID string) *ShowError {
	return New(ErrPresetNotFound, fmt.Sprintf("preset '%s' not declared on template '%s'", presetID, templateID)).
		SetTemplate(templateID)
}

// TimingMalformedError creates an error for a timing window with end <= start
func TimingMalformedError(what string, start, end float64) *ShowError {
	return New(ErrTimingMalformed, fmt.Sprintf("%s: end %.3f must be greater than start %.3f", what, end, start))
}

// RigReferenceError creates an error for an unknown fixture/group/order reference
func RigReferenceError(kind, name, member string) *ShowError {
	return New(ErrRigReference, fmt.Sprintf("%s '%s' references unknown fixture '%s'", kind, name, member))
}

// RepeatContractError creates an error for a malformed repeat contract
func RepeatContractError(templateID, reason string) *ShowError {
	return New(ErrRepeatContract, reason).SetTemplate(templateID)
}

// Resolution errors

// HandlerNotFoundError creates an error for an unresolvable pattern id.
// The message names the registry kind and the sorted list of known ids.
func HandlerNotFoundError(kind, pattern string, known []string) *ShowError {
	ids := append([]string(nil), known...)
	sort.Strings(ids)
	return New(ErrHandlerNotFound,
		fmt.Sprintf("no %s handler for pattern '%s' (known: %s)", kind, pattern, strings.Join(ids, ", "))).
		SetContext("pattern", pattern).
		SetContext("kind", kind)
}

// PatternUnknownError creates an error for a pattern id a handler cannot serve
func PatternUnknownError(kind, pattern string) *ShowError {
	return New(ErrPatternUnknown, fmt.Sprintf("%s pattern '%s' is not supported", kind, pattern)).
		SetContext("pattern", pattern)
}

// ChannelMissingError creates an error for a channel absent from a fixture map
func ChannelMissingError(fixture, channel string) *ShowError {
	return New(ErrChannelMissing, fmt.Sprintf("fixture has no '%s' channel", channel)).
		SetFixture(fixture)
}

// TargetUnresolvedError creates an error for a step target that maps to no fixtures
func TargetUnresolvedError(target string) *ShowError {
	return New(ErrTargetUnresolved, fmt.Sprintf("target '%s' resolves to no fixtures", target))
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if showErr, ok := err.(*ShowError); ok {
		return showErr.Code == code
	}
	return false
}

// IsStructural checks if error is fatal for the whole compilation run
func IsStructural(err error) bool {
	return Is(err, ErrPlanEmpty) ||
		Is(err, ErrPlanSection) ||
		Is(err, ErrTemplateNotFound) ||
		Is(err, ErrTemplateLoad) ||
		Is(err, ErrTemplateInvalid) ||
		Is(err, ErrPresetNotFound) ||
		Is(err, ErrTimingMalformed) ||
		Is(err, ErrRigReference) ||
		Is(err, ErrRepeatContract)
}

// IsResolution checks if error is local to a single instruction
func IsResolution(err error) bool {
	return Is(err, ErrHandlerNotFound) ||
		Is(err, ErrPatternUnknown) ||
		Is(err, ErrChannelMissing) ||
		Is(err, ErrTargetUnresolved)
}
