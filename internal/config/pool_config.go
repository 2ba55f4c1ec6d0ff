package config

import "strings"

const (
	defaultPoolIDVar      = "DEFAULT_POOL_ID"
	usernameAttributesVar = "USERNAME_ATTRIBUTES"
)

type PoolVars struct{}

var _ PoolConfig = PoolVars{}

// GetDefaultPoolID returns the pool id used when requests carry no explicit
// pool, and whose configuration seeds leniently created pools.
func (PoolVars) GetDefaultPoolID() string {
	return GetEnv(defaultPoolIDVar, "local")
}

// GetUsernameAttributes returns the alias attributes (comma separated in the
// environment, e.g. "email,phone_number") inherited by leniently created
// pools.
func (PoolVars) GetUsernameAttributes() []string {
	raw := GetEnv(usernameAttributesVar, "")
	if raw == "" {
		return []string{}
	}
	attributes := make([]string, 0)
	for _, attr := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(attr); trimmed != "" {
			attributes = append(attributes, trimmed)
		}
	}
	return attributes
}
