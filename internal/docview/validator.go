package docview

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validator checks document files before a session is opened for them.
type Validator struct {
	maxFileSize int64
	conf        *model.Configuration
}

// NewValidator creates a validator with the given size cap. Validation runs
// in relaxed mode: documents with recoverable structural defects still pass,
// matching what the rendering engines accept.
func NewValidator(maxFileSize int64) *Validator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &Validator{
		maxFileSize: maxFileSize,
		conf:        conf,
	}
}

// ValidateFile performs full validation on a document file. A failed
// validation is reported in the result, not as an error.
func (v *Validator) ValidateFile(req DocValidateRequest) (*DocValidateResult, error) {
	result := &DocValidateResult{Path: req.Path}

	if err := v.validate(req.Path); err != nil {
		result.Message = err.Error()
		return result, nil
	}

	result.Valid = true
	if count, err := api.PageCountFile(req.Path); err == nil {
		result.PageCount = count
	}
	if dims, err := v.PageDimensions(req.Path); err == nil {
		result.PageDimensions = dims
	}
	return result, nil
}

// IsValidPDF is the quick boolean form of ValidateFile.
func (v *Validator) IsValidPDF(path string) bool {
	return v.validate(path) == nil
}

func (v *Validator) validate(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	if v.maxFileSize > 0 && info.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), v.maxFileSize)
	}

	if err := api.ValidateFile(path, v.conf); err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	return nil
}

// PageDimensions returns per-page sizes in points, when pdfcpu can read them.
func (v *Validator) PageDimensions(path string) ([][2]float64, error) {
	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("page dimensions: %w", err)
	}

	out := make([][2]float64, 0, len(dims))
	for _, d := range dims {
		out = append(out, [2]float64{d.Width, d.Height})
	}
	return out, nil
}
