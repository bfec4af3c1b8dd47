// AngelaMos | 2026
// form.go

package user

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// formValues reads multipart and urlencoded fields into typed optionals.
// An absent field, an empty field and the literal "null" are all
// treated as not supplied.
type formValues url.Values

func (f formValues) raw(key string) *string {
	vs, ok := f[key]
	if !ok || len(vs) == 0 {
		return nil
	}

	v := vs[0]
	if strings.TrimSpace(v) == "" || strings.TrimSpace(v) == "null" {
		return nil
	}
	return &v
}

func (f formValues) String(key string) *string {
	v := f.raw(key)
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}

func (f formValues) Int(key string) (*int, error) {
	v := f.String(key)
	if v == nil {
		return nil, nil
	}

	n, err := strconv.Atoi(*v)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &n, nil
}

func (f formValues) Bool(key string) (*bool, error) {
	v := f.String(key)
	if v == nil {
		return nil, nil
	}

	b, err := strconv.ParseBool(*v)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", key)
	}
	return &b, nil
}

func parseSignUpForm(f formValues) (SignUpRequest, error) {
	req := SignUpRequest{
		UserType: TypeUser,
		GSTIN:    f.String("gstin"),
	}

	req.Name = deref(f.String("name"))
	req.Email = deref(f.String("email"))
	req.Password = deref(f.raw("password"))
	req.PhoneNo = deref(f.String("phoneNo"))

	if v := f.String("userType"); v != nil {
		req.UserType = *v
	}

	pkg, err := f.Int("package")
	if err != nil {
		return req, err
	}
	if pkg != nil {
		req.Package = *pkg
	}

	typ, err := f.Int("type")
	if err != nil {
		return req, err
	}
	if typ != nil {
		req.Type = *typ
	}

	return req, nil
}

func parseUpdateUserForm(f formValues) (UpdateUserRequest, error) {
	req := UpdateUserRequest{
		Name:      f.String("name"),
		Email:     f.String("email"),
		PhoneNo:   f.String("phoneNo"),
		UserType:  f.String("userType"),
		GSTIN:     f.String("gstin"),
		CompanyID: f.String("companyId"),
	}

	var err error
	if req.Package, err = f.Int("package"); err != nil {
		return req, err
	}
	if req.IsVerified, err = f.Bool("isVerified"); err != nil {
		return req, err
	}

	return req, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
