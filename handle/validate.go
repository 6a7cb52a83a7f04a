package handle

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/adamwoolhether/fetcher/engine/throttle"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("handle: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// config is the resolved handle configuration checked before the engine
// context is built.
type config struct {
	URL             string           `json:"url" validate:"required,url"`
	Proxy           string           `json:"proxy" validate:"omitempty,hostname_port|url"`
	ConnectTimeout  time.Duration    `json:"connect_timeout" validate:"gte=0"`
	TransferTimeout time.Duration    `json:"transfer_timeout" validate:"gte=0"`
	MaxConnects     int              `json:"max_connects" validate:"gt=0"`
	Throttle        *throttle.Config `json:"throttle"`
}

// sharedConfig is the resolved [SharedConnections] configuration.
type sharedConfig struct {
	MaxConnects int              `json:"max_connects" validate:"gt=0"`
	Throttle    *throttle.Config `json:"throttle"`
}

// check validates val against its declared tags.
func check(val any) error {
	if err := validate.Struct(val); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			_, name, _ := strings.Cut(verror.Namespace(), ".")
			field := FieldError{
				Field: name,
				Err:   customErrForTag(verror.Tag(), verror),
			}
			fields = append(fields, field)
		}
		return fields
	}

	return nil
}

// FieldError is a single invalid configuration value.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors collects every invalid configuration value.
type FieldErrors []FieldError

// Error implements the error interface, returning a human-readable
// summary of all field errors.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	case "hostname_port|url":
		return "must be host:port or a URL"
	default:
		return verror.Translate(translator)
	}
}
