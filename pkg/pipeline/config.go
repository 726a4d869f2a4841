package pipeline

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/reana/pkg/errors"
)

// LoadOptions reads run options from a TOML file:
//
//	model = "bsn.json"
//	strategy = "feature-family"
//	mode = "parallel"
//	workers = 8
//	configurations = ["Root,Sensor", "Root,Memory"]
//
// Unknown keys are rejected so that typos do not go unnoticed. A missing
// file yields a FILE_NOT_FOUND error.
func LoadOptions(path string) (Options, error) {
	var opts Options
	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		if os.IsNotExist(err) {
			return Options{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, errors.New(errors.ErrCodeInvalidInput, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return opts, nil
}
