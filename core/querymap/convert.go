package querymap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Patterns are the file name patterns converted when the input is a directory.
var Patterns = []string{"*.glue_sql", "*.xml"}

// ErrNoInputs is returned when a directory holds no queryMap files.
var ErrNoInputs = errors.New("no *.glue_sql or *.xml files found")

// Conversion is the outcome of converting one file.
type Conversion struct {
	Input   string `json:"input"`
	Output  string `json:"output,omitempty"`
	Queries int    `json:"queries"`
	Err     error  `json:"-"`
}

// Report summarizes a conversion run.
type Report struct {
	Conversions []Conversion `json:"conversions"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
}

// Err joins the errors of every failed conversion.
func (r Report) Err() error {
	var errs []error
	for _, c := range r.Conversions {
		if c.Err != nil {
			errs = append(errs, c.Err)
		}
	}
	return errors.Join(errs...)
}

// Converter turns queryMap XML files into JSON source documents.
type Converter struct {
	logger  *zap.Logger
	workers int
}

// NewConverter creates a converter that converts up to workers files at a time.
func NewConverter(logger *zap.Logger, workers int) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Converter{logger: logger, workers: workers}
}

// DefaultOutput returns input with its extension replaced by .json.
func DefaultOutput(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".json"
}

// Convert converts input, which is a file or a directory. output names the result of
// a single file and is ignored for directories; empty means DefaultOutput. The
// returned error is non-nil when the input is unusable or any file failed.
func (c *Converter) Convert(input, output string) (Report, error) {
	info, err := os.Stat(input)
	if err != nil {
		return Report{}, fmt.Errorf("%s is not a valid file or directory: %w", input, err)
	}
	if info.IsDir() {
		return c.ConvertDir(input)
	}

	conv := c.ConvertFile(input, output)
	report := summarize([]Conversion{conv})
	return report, conv.Err
}

// ConvertFile converts one file.
func (c *Converter) ConvertFile(input, output string) Conversion {
	if output == "" {
		output = DefaultOutput(input)
	}
	conv := Conversion{Input: input}

	f, err := ParseFile(input)
	if err != nil {
		conv.Err = err
		c.logger.Warn("Conversion failed", zap.String("input", input), zap.Error(err))
		return conv
	}

	if err := writeFile(output, f); err != nil {
		conv.Err = fmt.Errorf("failed to write %s: %w", output, err)
		c.logger.Warn("Conversion failed", zap.String("input", input), zap.Error(conv.Err))
		return conv
	}

	conv.Output = output
	conv.Queries = f.Queries.Len()
	c.logger.Info("Converted",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("queries", conv.Queries),
	)
	return conv
}

// ConvertDir converts every file in dir matching Patterns, next to its input. One
// failing file never stops the others.
func (c *Converter) ConvertDir(dir string) (Report, error) {
	var inputs []string
	for _, pattern := range Patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return Report{}, err
		}
		inputs = append(inputs, matches...)
	}
	if len(inputs) == 0 {
		return Report{}, fmt.Errorf("%w in %s", ErrNoInputs, dir)
	}

	c.logger.Info("Converting directory", zap.String("dir", dir), zap.Int("files", len(inputs)))

	conversions := make([]Conversion, len(inputs))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, input := range inputs {
		g.Go(func() error {
			conversions[i] = c.ConvertFile(input, "")
			return nil
		})
	}
	_ = g.Wait()

	report := summarize(conversions)
	c.logger.Info("Conversion finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, report.Err()
}

func summarize(conversions []Conversion) Report {
	r := Report{Conversions: conversions}
	for _, c := range conversions {
		if c.Err != nil {
			r.Failed++
		} else {
			r.Succeeded++
		}
	}
	return r
}

func writeFile(path string, f *File) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WriteJSON(fh); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}
