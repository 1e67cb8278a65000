// Package fill writes plan values into a copy of an AcroForm PDF.
package fill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/mcp-form-filler/internal/pdf/errors"
	"github.com/a3tai/mcp-form-filler/internal/pdf/extraction"
)

const opFill = "fill"

// Filler applies fill plans with pdfcpu.
type Filler struct {
	extractor *extraction.FieldExtractor
}

// NewFiller creates a new form filler
func NewFiller() *Filler {
	return &Filler{
		extractor: extraction.NewFieldExtractor(),
	}
}

// Fill writes a filled copy of input to output and reports success. On failure the content of
// output is undefined.
func (f *Filler) Fill(ctx context.Context, input, output string, plan map[string]string) bool {
	if err := f.FillFile(ctx, input, output, plan); err != nil {
		slog.Error("Form fill failed", "component", "form_filler", "input", input, "output", output, "error", err)
		return false
	}
	return true
}

// FillFile writes a filled copy of input to output. Fields absent from plan keep their values.
func (f *Filler) FillFile(ctx context.Context, input, output string, plan map[string]string) error {
	logCtx := slog.With("component", "form_filler", "path", input)

	inAbs, err := filepath.Abs(input)
	if err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeFillFailure, opFill, err).WithFile(input)
	}
	outAbs, err := filepath.Abs(output)
	if err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeFillFailure, opFill, err).WithFile(output)
	}
	if inAbs == outAbs {
		return pdferrors.New(pdferrors.ErrorTypeFillFailure, opFill, "output must differ from input").WithFile(input)
	}

	if info, err := os.Stat(filepath.Dir(outAbs)); err != nil || !info.IsDir() {
		return pdferrors.New(pdferrors.ErrorTypeFillFailure, opFill, "output directory does not exist").WithFile(output)
	}

	data, err := os.ReadFile(inAbs)
	if err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeFillFailure, opFill, err).WithFile(input)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	fields, err := f.extractor.ExtractFieldsFromReader(bytes.NewReader(data))
	if err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeFillFailure, opFill, err).WithFile(input)
	}

	frm := buildForm(fields, plan, logCtx)

	var filled []byte
	if frm.size() == 0 {
		logCtx.Info("Nothing to fill, copying input")
		filled = data
	} else {
		filled, err = apply(data, frm)
		if err != nil {
			return pdferrors.Wrap(pdferrors.ErrorTypeFillFailure, opFill, err).WithFile(input)
		}
	}

	if err := writeAtomic(outAbs, filled); err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeFillFailure, opFill, err).WithFile(output)
	}

	logCtx.Info("Form filled", "output", outAbs, "fields", frm.size())
	return nil
}

func apply(data []byte, frm form) ([]byte, error) {
	var err error

	if frm.pdfcpuSize() > 0 {
		if data, err = fillForm(data, frm); err != nil {
			return nil, err
		}
	}

	if len(frm.Free) > 0 {
		if data, err = setValues(data, frm.Free); err != nil {
			return nil, err
		}
	}

	return data, nil
}

func fillForm(data []byte, frm form) ([]byte, error) {
	payload, err := json.Marshal(formGroup{Forms: []form{frm}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode form data: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(data), bytes.NewReader(payload), &out, conf); err != nil {
		return nil, fmt.Errorf("pdfcpu fill: %w", err)
	}

	return out.Bytes(), nil
}

// setValues writes values verbatim into the /V entry of the field dictionaries named by object number.
func setValues(data []byte, values map[string]string) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	for id, value := range values {
		objNr, err := strconv.Atoi(id)
		if err != nil {
			return nil, fmt.Errorf("invalid field id %q: %w", id, err)
		}

		d, err := pdfCtx.DereferenceDict(*types.NewIndirectRef(objNr, 0))
		if err != nil || d == nil {
			return nil, fmt.Errorf("field object %d not found", objNr)
		}

		s, err := types.EscapedUTF16String(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode value: %w", err)
		}

		d["V"] = types.StringLiteral(*s)
		d.Delete("I")
	}

	var out bytes.Buffer
	if err := api.Write(pdfCtx, &out, conf); err != nil {
		return nil, fmt.Errorf("pdfcpu write: %w", err)
	}

	return out.Bytes(), nil
}

// writeAtomic writes to a temporary file next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fill-*.pdf")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}

	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}

	return nil
}
