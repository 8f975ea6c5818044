package config

import "gopkg.in/yaml.v3"

// unmarshalYAML decodes into a typed destination (e.g. Registry), as opposed
// to DecodeYAML which always produces a free-form Raw tree.
func unmarshalYAML(b []byte, out any) error {
	return yaml.Unmarshal(b, out)
}
