package accounts

import (
	"fmt"
	"regexp"
	"strings"

	"userhub-backend/internal/users"
	"userhub-backend/pkg/enums"
	pkgerrors "userhub-backend/pkg/errors"
)

// Local-part @ domain . TLD of at least two characters.
var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether s looks like a deliverable address.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

type requiredField struct {
	name  string
	value string
}

// requireNonEmpty rejects any field whose value is absent or whitespace-only.
func requireNonEmpty(fields ...requiredField) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return pkgerrors.New(pkgerrors.CodeBadRequest, fmt.Sprintf("%s is required", f.name))
		}
	}
	return nil
}

// Field names an admin modify request may touch. Anything else in the payload
// is dropped without comment.
const (
	fieldEmail  = "email"
	fieldName   = "name"
	fieldAvatar = "avatar"
	fieldPhone  = "phone"
	fieldRole   = "role"
)

// pickAllowedFields converts an arbitrary client payload into a typed partial
// update, keeping only the whitelisted keys. Unknown keys are ignored; a
// whitelisted key with a malformed value is a BadRequest.
func pickAllowedFields(input map[string]any) (users.UpdateFields, error) {
	var fields users.UpdateFields

	for key, raw := range input {
		switch key {
		case fieldEmail, fieldName, fieldAvatar, fieldPhone:
			value, ok := raw.(string)
			if !ok {
				return users.UpdateFields{}, pkgerrors.New(pkgerrors.CodeBadRequest, fmt.Sprintf("%s must be a string", key))
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			switch key {
			case fieldEmail:
				if !IsValidEmail(value) {
					return users.UpdateFields{}, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid email format")
				}
				fields.Email = &value
			case fieldName:
				lowered := strings.ToLower(value)
				fields.Name = &lowered
			case fieldAvatar:
				fields.Avatar = &value
			case fieldPhone:
				fields.Phone = &value
			}

		case fieldRole:
			value, ok := raw.(string)
			if !ok {
				return users.UpdateFields{}, pkgerrors.New(pkgerrors.CodeBadRequest, "role must be a string")
			}
			role, err := enums.ParseUserRole(value)
			if err != nil {
				return users.UpdateFields{}, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid role")
			}
			fields.Role = &role
		}
	}

	return fields, nil
}
