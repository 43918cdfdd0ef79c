package docfill

// Authorizer gates engine operations. Implementations decide per operation
// whether the call may proceed; returning an error aborts it.
type Authorizer interface {
	Authorize(operation string) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(operation string) error

func (f AuthorizerFunc) Authorize(operation string) error {
	return f(operation)
}

// Operation names passed to Authorize.
const (
	OpFill    = "fill"
	OpConvert = "convert"
)

// licensedOperations lists the operations that require a license key.
// Plain document filling is always allowed.
var licensedOperations = map[string]bool{
	OpConvert: true,
}

// KeyAuthorizer authorizes licensed operations when a non-empty license
// key is configured, and allows unlicensed operations unconditionally.
func KeyAuthorizer(licenseKey string) Authorizer {
	return AuthorizerFunc(func(operation string) error {
		if !licensedOperations[operation] {
			return nil
		}
		if licenseKey == "" {
			return &AuthorizationError{Message: "operation " + operation + " requires a license key"}
		}
		return nil
	})
}

// AllowAll authorizes every operation.
func AllowAll() Authorizer {
	return AuthorizerFunc(func(string) error { return nil })
}
