package extraction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	flagReadOnly   = 1 << 0
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16
	flagCombo      = 1 << 17

	maxFieldDepth = 32
)

// FieldExtractor reads AcroForm fields with pdfcpu.
type FieldExtractor struct{}

// NewFieldExtractor creates a new structured field extractor
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{}
}

// ExtractFields returns the document's terminal form fields. It returns nil without an
// error when the file is not a readable PDF or has no interactive widgets.
func (fe *FieldExtractor) ExtractFields(ctx context.Context, path string) ([]FormField, error) {
	logCtx := slog.With("component", "field_extractor", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields, err := fe.ExtractFieldsFromReader(file)
	if err != nil {
		logCtx.Warn("PDF not recognized, no structured fields", "error", err)
		return nil, nil
	}

	if len(fields) == 0 {
		logCtx.Info("No interactive widgets found")
		return nil, nil
	}

	logCtx.Info("Extracted form fields", "count", len(fields))
	return fields, nil
}

// ExtractFieldsFromReader extracts fields from an io.ReadSeeker
func (fe *FieldExtractor) ExtractFieldsFromReader(rs io.ReadSeeker) (fields []FormField, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields, err = nil, fmt.Errorf("PDF parser panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return fe.extractFieldsFromContext(pdfCtx)
}

// fieldWalker collects terminal fields in document order
type fieldWalker struct {
	ctx *model.Context

	pageByObject map[int]int
	pageByAnnot  map[int]int
	visited      map[int]bool

	fields []FormField
	index  map[string]int
}

// inherited holds the inheritable field attributes of the nearest ancestors
type inherited struct {
	ft    string
	flags int
	value types.Object
}

func (fe *FieldExtractor) extractFieldsFromContext(ctx *model.Context) ([]FormField, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	w := &fieldWalker{
		ctx:     ctx,
		visited: map[int]bool{},
		index:   map[string]int{},
	}
	w.indexPages()

	for _, fieldObj := range fieldsArray {
		w.walk(fieldObj, "", inherited{}, 0)
	}

	return w.fields, nil
}

// indexPages maps page and widget object numbers to 1-based page numbers
func (w *fieldWalker) indexPages() {
	w.pageByObject = map[int]int{}
	w.pageByAnnot = map[int]int{}

	for pageNr := 1; pageNr <= w.ctx.PageCount; pageNr++ {
		pageDict, pageRef, _, err := w.ctx.PageDict(pageNr, false)
		if err != nil || pageDict == nil {
			continue
		}

		if pageRef != nil {
			w.pageByObject[int(pageRef.ObjectNumber)] = pageNr
		}

		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}

		annots, err := w.ctx.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}

		for _, a := range annots {
			if ref, ok := a.(types.IndirectRef); ok {
				w.pageByAnnot[int(ref.ObjectNumber)] = pageNr
			}
		}
	}
}

func (w *fieldWalker) walk(obj types.Object, parentName string, inh inherited, depth int) {
	if depth > maxFieldDepth {
		return
	}

	objNr := -1
	if ref, ok := obj.(types.IndirectRef); ok {
		objNr = int(ref.ObjectNumber)
		if w.visited[objNr] {
			return
		}
		w.visited[objNr] = true
	}

	dict, err := w.ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return
	}

	name := parentName
	if partial := w.stringEntry(dict, "T"); partial != "" {
		if name != "" {
			name += "." + partial
		} else {
			name = partial
		}
	}

	inh = w.inherit(dict, inh)

	var fieldKids, widgets []types.Dict
	var fieldKidObjs []types.Object

	if kidsObj, found := dict.Find("Kids"); found {
		if kids, err := w.ctx.DereferenceArray(kidsObj); err == nil {
			for _, kidObj := range kids {
				kid, err := w.ctx.DereferenceDict(kidObj)
				if err != nil || kid == nil {
					continue
				}
				if _, hasName := kid.Find("T"); hasName {
					fieldKids = append(fieldKids, kid)
					fieldKidObjs = append(fieldKidObjs, kidObj)
					continue
				}
				widgets = append(widgets, w.withObjectNumber(kid, kidObj))
			}
		}
	}

	if len(fieldKids) > 0 {
		for _, kidObj := range fieldKidObjs {
			w.walk(kidObj, name, inh, depth+1)
		}
		if len(widgets) == 0 {
			return
		}
	}

	if len(widgets) == 0 {
		if _, isWidget := dict.Find("Rect"); !isWidget && inh.ft == "" {
			return
		}
		widgets = []types.Dict{w.withObjectNumber(dict, obj)}
	}

	field := w.buildField(name, objNr, dict, inh, widgets)
	w.add(field)
}

// withObjectNumber tags a widget dict with its object number for page lookup
func (w *fieldWalker) withObjectNumber(d types.Dict, obj types.Object) types.Dict {
	if ref, ok := obj.(types.IndirectRef); ok {
		tagged := types.Dict{}
		for k, v := range d {
			tagged[k] = v
		}
		tagged["_objNr"] = types.Integer(int(ref.ObjectNumber))
		return tagged
	}
	return d
}

func (w *fieldWalker) inherit(dict types.Dict, inh inherited) inherited {
	if ftObj, found := dict.Find("FT"); found {
		if ft, err := w.ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			inh.ft = string(ft)
		}
	}

	if flagsObj, found := dict.Find("Ff"); found {
		if flags, err := w.ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
			inh.flags = int(*flags)
		}
	}

	if v, found := dict.Find("V"); found {
		inh.value = v
	}

	return inh
}

func (w *fieldWalker) buildField(name string, objNr int, dict types.Dict, inh inherited, widgets []types.Dict) FormField {
	if name == "" {
		name = fmt.Sprintf("field_%d", len(w.fields))
	}

	field := FormField{
		Name:     name,
		Type:     fieldType(inh.ft, inh.flags),
		ReadOnly: inh.flags&flagReadOnly != 0,
	}

	if objNr >= 0 {
		field.ID = strconv.Itoa(objNr)
	}

	if inh.value != nil {
		field.Value = w.fieldValue(inh.value)
	}

	switch field.Type {
	case FormFieldTypeChoice:
		field.Options = w.choiceOptions(dict)
		if field.Options == nil {
			field.Options = []string{}
		}
		field.Combo = inh.flags&flagCombo != 0
	case FormFieldTypeCheckbox, FormFieldTypeRadio:
		field.States = w.onStates(widgets)
	}

	field.Rect, field.Page = w.widgetBounds(widgets)

	return field
}

// add appends a field; a later field with the same name replaces the earlier one in place.
func (w *fieldWalker) add(field FormField) {
	if pos, exists := w.index[field.Name]; exists {
		slog.Warn("Duplicate form field name, later field wins", "name", field.Name,
			"previousID", w.fields[pos].ID, "id", field.ID)
		w.fields[pos] = field
		return
	}

	w.index[field.Name] = len(w.fields)
	w.fields = append(w.fields, field)
}

// fieldType determines the field type from the FT entry and field flags
func fieldType(ft string, flags int) FormFieldType {
	switch ft {
	case "Btn":
		if flags&flagRadio != 0 {
			return FormFieldTypeRadio
		}
		if flags&flagPushbutton != 0 {
			return FormFieldTypeButton
		}
		return FormFieldTypeCheckbox
	case "Tx":
		return FormFieldTypeText
	case "Ch":
		return FormFieldTypeChoice
	case "Sig":
		return FormFieldTypeSignature
	default:
		return FormFieldTypeUnknown
	}
}

// fieldValue renders a V entry as a string: text, a button state name, or a joined choice list
func (w *fieldWalker) fieldValue(obj types.Object) *string {
	if s, err := w.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return &s
	}

	if n, err := w.ctx.DereferenceName(obj, model.V10, nil); err == nil {
		s := string(n)
		return &s
	}

	if arr, err := w.ctx.DereferenceArray(obj); err == nil && arr != nil {
		var values []string
		for _, item := range arr {
			if s, err := w.ctx.DereferenceStringOrHexLiteral(item, model.V10, nil); err == nil {
				values = append(values, s)
			}
		}
		s := strings.Join(values, ", ")
		return &s
	}

	return nil
}

// choiceOptions extracts the Opt array; for [export display] pairs the export value is used
func (w *fieldWalker) choiceOptions(dict types.Dict) []string {
	optObj, found := dict.Find("Opt")
	if !found {
		return nil
	}

	optArray, err := w.ctx.DereferenceArray(optObj)
	if err != nil {
		return nil
	}

	options := make([]string, 0, len(optArray))
	for _, opt := range optArray {
		if s, err := w.ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, s)
		} else if pair, err := w.ctx.DereferenceArray(opt); err == nil && len(pair) >= 1 {
			if s, err := w.ctx.DereferenceStringOrHexLiteral(pair[0], model.V10, nil); err == nil {
				options = append(options, s)
			}
		}
	}

	return options
}

// onStates collects the non-Off normal appearance names of the widgets, in widget order
func (w *fieldWalker) onStates(widgets []types.Dict) []string {
	var states []string
	seen := map[string]bool{}

	for _, widget := range widgets {
		apObj, found := widget.Find("AP")
		if !found {
			continue
		}
		apDict, err := w.ctx.DereferenceDict(apObj)
		if err != nil || apDict == nil {
			continue
		}
		nObj, found := apDict.Find("N")
		if !found {
			continue
		}
		nDict, err := w.ctx.DereferenceDict(nObj)
		if err != nil || nDict == nil {
			continue
		}

		names := make([]string, 0, len(nDict))
		for k := range nDict {
			names = append(names, k)
		}
		sort.Strings(names)

		for _, k := range names {
			if k == "Off" || seen[k] {
				continue
			}
			seen[k] = true
			states = append(states, k)
		}
	}

	return states
}

// widgetBounds returns the rectangle and page of the first widget carrying a Rect
func (w *fieldWalker) widgetBounds(widgets []types.Dict) (*BoundingBox, int) {
	for _, widget := range widgets {
		rectObj, found := widget.Find("Rect")
		if !found {
			continue
		}

		rect := w.parseRect(rectObj)
		if rect == nil {
			continue
		}

		return rect, w.widgetPage(widget)
	}

	return nil, 0
}

func (w *fieldWalker) widgetPage(widget types.Dict) int {
	if pObj, found := widget.Find("P"); found {
		if ref, ok := pObj.(types.IndirectRef); ok {
			if page, ok := w.pageByObject[int(ref.ObjectNumber)]; ok {
				return page
			}
		}
	}

	if nrObj, found := widget.Find("_objNr"); found {
		if nr, ok := nrObj.(types.Integer); ok {
			if page, ok := w.pageByAnnot[int(nr)]; ok {
				return page
			}
		}
	}

	if w.ctx.PageCount == 1 {
		return 1
	}

	return 0
}

// parseRect normalizes a Rect array so that LowerLeft is the minimum corner
func (w *fieldWalker) parseRect(rectObj types.Object) *BoundingBox {
	rectArray, err := w.ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return nil
	}

	coords := make([]float64, 4)
	for i, coord := range rectArray {
		f, err := w.ctx.DereferenceNumber(coord)
		if err != nil {
			return nil
		}
		coords[i] = f
	}

	x1, y1, x2, y2 := coords[0], coords[1], coords[2], coords[3]
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}

	return &BoundingBox{
		LowerLeft:  Coordinate{X: x1, Y: y1},
		UpperRight: Coordinate{X: x2, Y: y2},
		Width:      x2 - x1,
		Height:     y2 - y1,
	}
}

func (w *fieldWalker) stringEntry(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	s, err := w.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}
