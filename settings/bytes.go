package settings

import (
	"log"
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// HumanReadableBytes is a byte count that can be configured as "64Mi", "500Ki" or "1GB".
type HumanReadableBytes uint64

// HumanToBytes parses a human readable byte size.
func HumanToBytes(s string) (HumanReadableBytes, error) {
	val, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return HumanReadableBytes(val), nil
}

// HumanToBytesFatal parses a human readable byte size and exits on failure, for use in defaults.
func HumanToBytesFatal(s string) HumanReadableBytes {
	val, err := HumanToBytes(s)
	if err != nil {
		log.Fatalf("bad byte size %s: %v", s, err)
	}
	return val
}

func (b HumanReadableBytes) String() string {
	return humanize.IBytes(uint64(b))
}

// HumanReadableBytesHookFunc decodes strings from the environment into HumanReadableBytes.
func HumanReadableBytesHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(HumanReadableBytes(0)) || f.Kind() != reflect.String {
			return data, nil
		}
		return HumanToBytes(data.(string))
	}
}

// UnmarshalYAML allows config files to use the same human readable sizes as the environment.
func (b *HumanReadableBytes) UnmarshalYAML(value *yaml.Node) error {
	val, err := HumanToBytes(value.Value)
	if err != nil {
		return err
	}
	*b = val
	return nil
}
