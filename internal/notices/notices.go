package notices

import "fmt"

// Category groups notices by failure class.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryAuth       Category = "auth"
	CategoryPermission Category = "permission"
	CategoryValidation Category = "validation"
	CategoryRateLimit  Category = "rate-limit"
	CategoryServer     Category = "server"
)

// Template defines a registered user-facing notice.
type Template struct {
	Category Category
	Title    string
	Message  string
}

// Notice codes used by the transport's failure classifier.
const (
	CodeTimeout        = "N001"
	CodeConnectivity   = "N002"
	CodeSessionExpired = "N401"
	CodeForbidden      = "N403"
	CodeCSRFExpired    = "N403C"
	CodeNotFound       = "N404"
	CodeValidation     = "N422"
	CodeRateLimited    = "N429"
	CodeServerError    = "N500"
	CodeGeneric        = "N4XX"
)

// registry maps notice codes to their templates.
var registry = map[string]Template{
	"N001": {
		Category: CategoryNetwork,
		Title:    "Request Timed Out",
		Message:  "The server took too long to respond. Please try again.",
	},
	"N002": {
		Category: CategoryNetwork,
		Title:    "Connection Failed",
		Message:  "Unable to reach the RODEO backend. Check your network connection.",
	},
	"N401": {
		Category: CategoryAuth,
		Title:    "Session Expired",
		Message:  "Your session has expired. Please log in again.",
	},
	"N403": {
		Category: CategoryPermission,
		Title:    "Permission Denied",
		Message:  "You do not have permission to perform this action.",
	},
	"N403C": {
		Category: CategoryAuth,
		Title:    "Security Token Expired",
		Message:  "Your security token could not be refreshed. Please retry the action.",
	},
	"N404": {
		Category: CategoryServer,
		Title:    "Not Found",
		Message:  "The requested resource was not found.",
	},
	"N422": {
		Category: CategoryValidation,
		Title:    "Validation Error",
		Message:  "The submitted data was rejected by the server.",
	},
	"N429": {
		Category: CategoryRateLimit,
		Title:    "Rate Limited",
		Message:  "Too many requests. Please slow down.",
	},
	"N500": {
		Category: CategoryServer,
		Title:    "Server Error",
		Message:  "The server encountered an error processing your request.",
	},
	"N4XX": {
		Category: CategoryServer,
		Title:    "Request Failed",
		Message:  "The request failed.",
	},
}

// Get returns the template for code, falling back to the generic
// template for unregistered codes.
func Get(code string) Template {
	if t, ok := registry[code]; ok {
		return t
	}
	return registry[CodeGeneric]
}

// WithDetail returns the template's message extended with detail text,
// typically server-supplied. An empty detail leaves the message as is.
func WithDetail(code, detail string) string {
	t := Get(code)
	if detail == "" {
		return t.Message
	}
	return fmt.Sprintf("%s %s", t.Message, detail)
}
