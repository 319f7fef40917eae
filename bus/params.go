package bus

import "fmt"

// ErrParamNotFound is returned by Params.Get when key is absent, mirroring
// rc.ErrParamNotFound's "Didn't find X in input" shape.
type ErrParamNotFound string

func (e ErrParamNotFound) Error() string {
	return fmt.Sprintf("didn't find %q in command args", string(e))
}

// ErrParamInvalid is returned when a key is present but holds a Data
// variant the requested accessor can't use.
type ErrParamInvalid struct {
	Key  string
	Kind DataKind
	Want DataKind
}

func (e ErrParamInvalid) Error() string {
	return fmt.Sprintf("command arg %q is kind %d, want %d", e.Key, e.Kind, e.Want)
}

// Params is a Cmd's argument map (§6): "positional args use integer keys
// (0..), named args use string keys", both folded into one string-keyed
// map the way rc.Params folds rclone's RC arguments.
type Params map[string]Data

// Pos renders positional index i as the string key Params uses for it.
func Pos(i int) string { return fmt.Sprintf("%d", i) }

// Get returns the raw Data at key, or ErrParamNotFound.
func (p Params) Get(key string) (Data, error) {
	v, ok := p[key]
	if !ok {
		return Data{}, ErrParamNotFound(key)
	}
	return v, nil
}

// GetString returns key's DataStr value, or an error if absent or of a
// different kind.
func (p Params) GetString(key string) (string, error) {
	v, err := p.Get(key)
	if err != nil {
		return "", err
	}
	if v.Kind != DataStr {
		return "", ErrParamInvalid{Key: key, Kind: v.Kind, Want: DataStr}
	}
	return v.Str, nil
}

// GetInt64 returns key's DataInt value.
func (p Params) GetInt64(key string) (int64, error) {
	v, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	if v.Kind != DataInt {
		return 0, ErrParamInvalid{Key: key, Kind: v.Kind, Want: DataInt}
	}
	return v.Int, nil
}

// GetBool returns key's DataBool value.
func (p Params) GetBool(key string) (bool, error) {
	v, err := p.Get(key)
	if err != nil {
		return false, err
	}
	if v.Kind != DataBool {
		return false, ErrParamInvalid{Key: key, Kind: v.Kind, Want: DataBool}
	}
	return v.Bool, nil
}
