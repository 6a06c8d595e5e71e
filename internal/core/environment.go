package core

// Environment identifies which deployment tier the service is running in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the service runs against production settings.
func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment maps v onto a known environment. Anything unrecognised,
// including the empty string, is treated as Development.
func ParseEnvironment(v string) Environment {
	switch env := Environment(v); env {
	case Production, Staging, Testing:
		return env
	default:
		return Development
	}
}
