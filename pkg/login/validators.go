package login

// Field names the two login form fields.
type Field string

const (
	FieldUsername Field = "username"
	FieldPassword Field = "password"
)

// Exact user-facing validation messages.
const (
	MsgUsernameRequired = "Username is required"
	MsgUsernameTooShort = "Username must be at least 3 characters"
	MsgPasswordRequired = "Password is required"
	MsgPasswordTooShort = "Password must be at least 4 characters"
)

const (
	usernameMinLength = 3
	passwordMinLength = 4
)

// ValidateUsername returns "" when valid, or the inline error message.
func ValidateUsername(value string) string {
	if value == "" {
		return MsgUsernameRequired
	}
	if len([]rune(value)) < usernameMinLength {
		return MsgUsernameTooShort
	}
	return ""
}

// ValidatePassword returns "" when valid, or the inline error message.
func ValidatePassword(value string) string {
	if value == "" {
		return MsgPasswordRequired
	}
	if len([]rune(value)) < passwordMinLength {
		return MsgPasswordTooShort
	}
	return ""
}

func validateField(f Field, value string) string {
	switch f {
	case FieldUsername:
		return ValidateUsername(value)
	case FieldPassword:
		return ValidatePassword(value)
	}
	return ""
}
