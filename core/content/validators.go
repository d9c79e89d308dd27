package content

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nexus-reussite/backend/core"
)

var (
	brickTypeTag  = "bricktype"
	brickTypeText = "invalid brick type"

	subjectTag  = "subject"
	subjectText = "invalid subject"

	profileTag  = "profile"
	profileText = "invalid target profile"

	learningStepTag  = "learningstep"
	learningStepText = "invalid learning step"
)

// InitValidators registers the content domain's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(brickTypeTag, brickTypeValidation)
	core.RegisterCustomTranslation(validate, translator, brickTypeTag, brickTypeText)

	_ = validate.RegisterValidation(subjectTag, subjectValidation)
	core.RegisterCustomTranslation(validate, translator, subjectTag, subjectText)

	_ = validate.RegisterValidation(profileTag, profileValidation)
	core.RegisterCustomTranslation(validate, translator, profileTag, profileText)

	_ = validate.RegisterValidation(learningStepTag, learningStepValidation)
	core.RegisterCustomTranslation(validate, translator, learningStepTag, learningStepText)
}

func brickTypeValidation(fl validator.FieldLevel) bool {
	return BrickType(fl.Field().String()).Valid()
}

func subjectValidation(fl validator.FieldLevel) bool {
	return Subject(fl.Field().String()).Valid()
}

func profileValidation(fl validator.FieldLevel) bool {
	return Profile(fl.Field().String()).Valid()
}

func learningStepValidation(fl validator.FieldLevel) bool {
	return LearningStep(fl.Field().String()).Valid()
}
