package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

var monthTag = "month"

// InitValidators registers the attendance validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(monthTag, monthValidation)
	core.RegisterCustomTranslation(validate, translator, monthTag, errInvalidMonth.Error())
}

func monthValidation(fl validator.FieldLevel) bool {
	return Month(fl.Field().Int()).IsValid()
}
