package applications

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

// ClassSpecs lists the playable classes and their specializations.
var ClassSpecs = map[string][]string{
	"Warrior":      {"Arms", "Fury", "Protection"},
	"Paladin":      {"Holy", "Protection", "Retribution"},
	"Hunter":       {"Beast Mastery", "Marksmanship", "Survival"},
	"Rogue":        {"Assassination", "Combat", "Subtlety"},
	"Priest":       {"Discipline", "Holy", "Shadow"},
	"Shaman":       {"Elemental", "Enhancement", "Restoration"},
	"Mage":         {"Arcane", "Fire", "Frost"},
	"Warlock":      {"Affliction", "Demonology", "Destruction"},
	"Druid":        {"Balance", "Feral", "Guardian", "Restoration"},
	"Death Knight": {"Blood", "Frost", "Unholy"},
}

// RaidRoles are the roles a candidate may apply for.
var RaidRoles = []string{"Tank", "Healer", "Melee DPS", "Ranged DPS"}

var battletagPattern = regexp.MustCompile(`^[^\s#]{2,}#[0-9]{3,6}$`)

// ValidationError reports every invalid field by its JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("applications: register %s validation: %v", tag, err))
		}
	}

	must("battletag", func(fl validator.FieldLevel) bool {
		return battletagPattern.MatchString(fl.Field().String())
	})
	must("charclass", func(fl validator.FieldLevel) bool {
		_, ok := ClassSpecs[fl.Field().String()]
		return ok
	})
	must("raidrole", func(fl validator.FieldLevel) bool {
		return slices.Contains(RaidRoles, fl.Field().String())
	})
	// classspec accepts any spec when the class itself is unknown; the
	// charclass rule reports that case.
	must("classspec", func(fl validator.FieldLevel) bool {
		fields, ok := fl.Parent().Interface().(models.ApplicationFields)
		if !ok {
			return true
		}
		specs, known := ClassSpecs[fields.CharClass]
		return !known || slices.Contains(specs, fl.Field().String())
	})

	return v
}

func validateFields(v *validator.Validate, fields models.ApplicationFields) error {
	err := v.Struct(fields)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("applications: validate: %w", err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "battletag":
		return "must look like Name#1234"
	case "charclass":
		return "is not a playable class"
	case "raidrole":
		return "must be one of " + strings.Join(RaidRoles, ", ")
	case "classspec":
		return "is not a specialization of the selected class"
	default:
		return "is invalid"
	}
}
