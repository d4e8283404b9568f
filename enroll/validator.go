// Package enroll validates the multi-step enrollment wizard: pick a state,
// then a school or district, then enter an access identifier. Validation is
// progressive: each step only checks the fields the user has reached.
package enroll

import (
	"github.com/go-playground/validator/v10"
)

// Flow selects which wizard variant is being validated.
type Flow string

const (
	FlowStudent  Flow = "student"
	FlowEducator Flow = "educator"
)

// Steps of the wizard. StepState checks only the state, StepOrg adds the
// school/district, StepIdentifier checks the full set.
const (
	StepState      = 1
	StepOrg        = 2
	StepIdentifier = 3
)

// Input carries the raw wizard fields. Unused fields for a flow are ignored.
type Input struct {
	State     string `json:"state"`
	School    string `json:"school"`
	District  string `json:"district"`
	StudentID string `json:"studentId"`
	UserID    string `json:"userId"`
}

// Result is the outcome of a validation pass. Exactly one of Success or
// FieldErrors is meaningful; validation never raises past this boundary.
type Result struct {
	Success     bool              `json:"success"`
	Data        *Input            `json:"data,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// The identifier gate is a fixed allow-list, not a real identity check.
// Students may enter 777 or 555; educators only 777.
type studentSchema struct {
	State     string `validate:"required"`
	School    string `validate:"required"`
	StudentID string `validate:"required,oneof=777 555"`
}

type educatorSchema struct {
	State    string `validate:"required"`
	District string `validate:"required"`
	UserID   string `validate:"required,oneof=777"`
}

// wire maps schema struct fields to the JSON field keys used in FieldErrors.
var wire = map[string]string{
	"State":     "state",
	"School":    "school",
	"District":  "district",
	"StudentID": "studentId",
	"UserID":    "userId",
}

var messages = map[string]map[string]string{
	"State":     {"required": "Please select your state"},
	"School":    {"required": "Please select your school"},
	"District":  {"required": "Please select your district"},
	"StudentID": {"required": "Student ID is required", "oneof": "Student ID not recognized"},
	"UserID":    {"required": "User ID is required", "oneof": "User ID not recognized"},
}

// Validator validates enrollment wizard submissions.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Validate checks the fields relevant to the given flow and step.
// Steps outside the defined range clamp to the nearest valid step.
func (val *Validator) Validate(flow Flow, step int, in Input) Result {
	if step < StepState {
		step = StepState
	}
	if step > StepIdentifier {
		step = StepIdentifier
	}

	var target interface{}
	var fields []string
	switch flow {
	case FlowEducator:
		target = educatorSchema{State: in.State, District: in.District, UserID: in.UserID}
		fields = []string{"State", "District", "UserID"}[:step]
	default:
		target = studentSchema{State: in.State, School: in.School, StudentID: in.StudentID}
		fields = []string{"State", "School", "StudentID"}[:step]
	}

	err := val.v.StructPartial(target, fields...)
	if err == nil {
		out := in
		return Result{Success: true, Data: &out}
	}

	fieldErrors := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Non-validation errors (bad schema) should never reach callers as a
		// hard failure; report them on a catch-all key instead.
		fieldErrors["_"] = "validation unavailable"
		return Result{Success: false, FieldErrors: fieldErrors}
	}
	for _, fe := range verrs {
		key, okKey := wire[fe.StructField()]
		if !okKey {
			key = fe.StructField()
		}
		msg := messages[fe.StructField()][fe.Tag()]
		if msg == "" {
			msg = "Invalid value"
		}
		fieldErrors[key] = msg
	}
	return Result{Success: false, FieldErrors: fieldErrors}
}
