// Package validate checks write payloads before they reach the
// network. Rules live as struct tags on the domain types.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kwhalen/slate/internal/domain"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct checks payload's validate tags. Violations fold into a single
// error matching domain.ErrInvalidInput, listing the offending fields.
func Struct(payload any) error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
}
