package grants

import (
	"encoding/json"
	"fmt"
)

// EnvVar carries the encoded grant set into the cordoned process so code
// running there can introspect what it was granted.
const EnvVar = "CORDON_GRANTS"

// LauncherEnvVar holds the pid of the cordon process that set EnvVar. The
// permission engine binds only the runtime cordon started directly, so the
// grant set describes a process only when its parent has this pid.
const LauncherEnvVar = "CORDON_LAUNCHER_PID"

// MarshalJSON encodes the set as an array of grants.
func (s Set) MarshalJSON() ([]byte, error) {
	if s.grants == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.grants)
}

// UnmarshalJSON decodes an array of grants, dropping repeats.
func (s *Set) UnmarshalJSON(data []byte) error {
	var grants []Grant
	if err := json.Unmarshal(data, &grants); err != nil {
		return err
	}
	*s = NewSet(grants...)
	return nil
}

// MarshalYAML encodes the set as a sequence of grants.
func (s Set) MarshalYAML() (any, error) {
	return s.Grants(), nil
}

// Encode renders the set for EnvVar.
func (s Set) Encode() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode grants: %w", err)
	}
	return string(raw), nil
}

// Decode parses a value produced by Encode.
func Decode(value string) (Set, error) {
	var s Set
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return Set{}, fmt.Errorf("decode grants: %w", err)
	}
	return s, nil
}
