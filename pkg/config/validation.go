package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration for structural correctness using
// struct tags. It runs after ApplyDefaults, so most fields will already
// carry a sensible value; validation mainly catches out-of-range values
// supplied explicitly by the user.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(verrs)
		}
		return err
	}
	return nil
}

// formatValidationErrors turns validator field errors into a single
// human-readable error message.
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag()))
	}

	err := fmt.Errorf("%s", msgs[0])
	for _, m := range msgs[1:] {
		err = fmt.Errorf("%w; %s", err, m)
	}
	return err
}
