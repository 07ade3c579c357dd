package project

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/papapumpkin/casmproj/internal/errkind"
)

var (
	namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	idPattern   = regexp.MustCompile(`^\w[\w.\-]*$`)
)

// newValidator returns a validator with the casmname and casmid rules.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "casmname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "casmid", func(fl validator.FieldLevel) bool {
		return idPattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("registering %s validation: %v", tag, err))
	}
}

// ValidateName checks a project or cluster expansion name: letters, digits
// and underscores, not starting with a digit.
func ValidateName(name string) error {
	if err := newValidator().Var(name, "required,casmname"); err != nil {
		return errkind.New(errkind.InvalidID, "project.validate_name", "",
			fmt.Errorf("name %q is not valid: must consist of alphanumeric characters and underscores only, "+
				"and the first character may not be a number", name))
	}
	return nil
}

// ValidateID checks an enumeration, basis set, calctype or similar id. what
// names the kind of id in the error message.
func ValidateID(what, id string) error {
	if err := newValidator().Var(id, "required,casmid"); err != nil {
		return errkind.New(errkind.InvalidID, "project.validate_id", "",
			fmt.Errorf("%s id %q is not valid: must start with a letter, digit or underscore "+
				"and contain only those characters, '.' and '-'", what, id))
	}
	return nil
}

// describeValidation flattens validator field errors into one message.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
