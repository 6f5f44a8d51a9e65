package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	personTypeTag  = "persontype"
	personTypeText = "must be one of Parent, Staff or Other"

	absenceKindTag  = "absencekind"
	absenceKindText = "must be one of SickDay or Leave"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

func init() {
	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	Translator, _ = uni.GetTranslator("en")

	Validate = validator.New()
	InitValidators(Validate, Translator)
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(personTypeTag, personTypeValidation)
	RegisterCustomTranslation(validate, translator, personTypeTag, personTypeText)

	_ = validate.RegisterValidation(absenceKindTag, absenceKindValidation)
	RegisterCustomTranslation(validate, translator, absenceKindTag, absenceKindText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// personTypeValidation only allows the known drop-off/pick-up person types.
func personTypeValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Parent", "Staff", "Other":
		return true
	}
	return false
}

// absenceKindValidation only allows administrative absence kinds; plain
// attendance records are opened through check-in, never reported.
func absenceKindValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "SickDay", "Leave":
		return true
	}
	return false
}
