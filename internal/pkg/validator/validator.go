package validator

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/pkg/errors"
)

var validate *validator.Validate

var enrichModes = map[string]bool{
	"":       true,
	"bbox":   true,
	"radius": true,
	"both":   true,
	"none":   true,
}

func init() {
	validate = validator.New()

	// в деталях ошибок поля называются так же, как параметры запроса
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "params", "json"} {
			if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	_ = validate.RegisterValidation("enrich_mode", func(fl validator.FieldLevel) bool {
		return enrichModes[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
	})
	_ = validate.RegisterValidation("dataset_list", func(fl validator.FieldLevel) bool {
		return len(domain.UnknownEnrichDatasets(config.ParseList(fl.Field().String()))) == 0
	})
}

// Validate - валидация структуры; ошибки переводятся в AppError
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.ErrInvalidRequest.WithMessage(err.Error())
	}
	return translate(verrs)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

func translate(verrs validator.ValidationErrors) error {
	details := make(map[string]interface{}, len(verrs))
	var specific *errors.AppError

	for _, fe := range verrs {
		field := fe.Field()
		details[field] = describe(fe)

		if specific != nil {
			continue
		}
		switch {
		case fe.Tag() == "dataset_list":
			specific = errors.ErrUnknownDataset.WithDetails(map[string]interface{}{
				"unknown":   domain.UnknownEnrichDatasets(config.ParseList(fe.Value().(string))),
				"available": domain.EnrichDatasetNames(),
			})
		case fe.Tag() == "enrich_mode":
			specific = errors.ErrInvalidMode.WithDetails(map[string]interface{}{"mode": fe.Value()})
		case field == "lat" || field == "lon":
			specific = errors.ErrInvalidCoordinates
		case field == "radius_m" || field == "buffer_m":
			specific = errors.ErrInvalidRadius
		case field == "limit" || field == "offset":
			specific = errors.ErrInvalidLimit
		case field == "start" || field == "end":
			if fe.Tag() == "required" {
				specific = errors.ErrMissingDateRange
			} else {
				specific = errors.ErrInvalidDateRange
			}
		}
	}

	if specific != nil {
		if specific.Details == nil {
			return specific.WithDetails(details)
		}
		return specific
	}
	return errors.ErrInvalidRequest.WithDetails(details)
}

func describe(fe validator.FieldError) string {
	if fe.Param() != "" {
		return "failed on " + fe.Tag() + "=" + fe.Param()
	}
	return "failed on " + fe.Tag()
}
