package internal

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type binding struct {
	flag *pflag.Flag
	key  string
}

// bindings maps flags to config keys. They are applied to a fresh viper
// instance on every load, so repeated runs in one process never share
// config search paths or values.
var bindings []binding

func bindFlag(f *pflag.Flag, key string) {
	if f == nil {
		panic(fmt.Sprintf("bind %s: no such flag", key))
	}
	bindings = append(bindings, binding{flag: f, key: key})
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	for _, b := range bindings {
		if err := v.BindPFlag(b.key, b.flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", b.flag.Name, err)
		}
	}
	return v, nil
}
