package order

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Method is the vehicle class requested for the delivery.
type Method string

const (
	MethodLight    Method = "light"
	MethodStandard Method = "standard"
	MethodBulk     Method = "bulk"
)

// ParseMethod accepts the vehicle class in any case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate rejects unknown vehicle classes.
func (m Method) Validate() error {
	switch m {
	case MethodLight, MethodStandard, MethodBulk:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("method is invalid", fmt.Errorf("%q is not a vehicle class", string(m)))
	}
}

func (m Method) String() string {
	return string(m)
}
