package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/reana/pkg/analysis"
	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/featuremodel"
)

type resultsDoc struct {
	Strategy string        `json:"strategy"`
	Formula  string        `json:"formula,omitempty"`
	Results  []resultEntry `json:"results"`
}

type resultEntry struct {
	Configuration []string `json:"configuration"`
	Reliability   *float64 `json:"reliability,omitempty"`
	Error         string   `json:"error,omitempty"`
	Code          string   `json:"code,omitempty"`
}

// WriteResults encodes the entries of res as JSON and writes them to w.
// Lazy results are solved as needed.
func WriteResults(res *analysis.Results, w io.Writer) error {
	out := resultsDoc{Strategy: res.Strategy().String()}
	out.Formula, _ = res.Formula()

	for _, e := range res.Entries() {
		re := resultEntry{Configuration: e.Configuration.Features()}
		if re.Configuration == nil {
			re.Configuration = []string{}
		}
		if e.Err != nil {
			re.Error = errors.UserMessage(e.Err)
			re.Code = string(errors.GetCode(e.Err))
		} else {
			v := e.Reliability
			re.Reliability = &v
		}
		out.Results = append(out.Results, re)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportResults writes res to a JSON file at path.
func ExportResults(res *analysis.Results, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteResults(res, f)
}

// ReadConfigurations reads one comma-separated configuration per line.
func ReadConfigurations(r io.Reader) ([]featuremodel.Configuration, error) {
	var out []featuremodel.Configuration
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, featuremodel.ParseConfiguration(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read configurations: %w", err)
	}
	return out, nil
}

// ImportConfigurations reads a configuration list file at path.
func ImportConfigurations(path string) ([]featuremodel.Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadConfigurations(f)
}
