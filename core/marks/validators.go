package marks

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

var (
	examTypeTag  = "examtype"
	examTypeText = "exam type must be one of Mid-1, Mid-2, Internal or External"
)

// InitValidators registers the marks validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(examTypeTag, examTypeValidation)
	core.RegisterCustomTranslation(validate, translator, examTypeTag, examTypeText)
}

func examTypeValidation(fl validator.FieldLevel) bool {
	return ExamType(fl.Field().String()).IsValid()
}
