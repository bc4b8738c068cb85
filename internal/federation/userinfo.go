package federation

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UserInfo is the subset of OIDC userinfo claims the service relies on.
type UserInfo struct {
	Subject       string       `json:"sub"`
	Email         string       `json:"email"`
	EmailVerified flexibleBool `json:"email_verified"`
	Name          string       `json:"name"`
}

// VerifiedEmail returns the email only when the provider marked it verified.
func (u *UserInfo) VerifiedEmail() (string, bool) {
	if u == nil {
		return "", false
	}
	email := strings.TrimSpace(u.Email)
	if email == "" || !bool(u.EmailVerified) {
		return "", false
	}
	return email, true
}

// DisplayName returns the provider supplied name.
func (u *UserInfo) DisplayName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.Name)
}

// flexibleBool accepts both true and "true"; some providers quote booleans.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*b = flexibleBool(v)
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			*b = false
			return nil
		}
		*b = flexibleBool(parsed)
	default:
		*b = false
	}
	return nil
}
