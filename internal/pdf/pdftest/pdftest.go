// Package pdftest builds small AcroForm documents on the fly for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Field kinds understood by Build.
const (
	KindText     = "text"
	KindCheckbox = "checkbox"
	KindRadio    = "radio"
	KindCombo    = "combo"
	KindList     = "list"
)

// Field describes one terminal form field.
type Field struct {
	Name  string
	Kind  string
	Value string
	// States are the radio button export names; a checkbox uses the first entry as its
	// on-state and defaults to "Yes".
	States  []string
	Options []string
	Rect    [4]float64
}

// Document is a single-page PDF with optional text lines and form fields.
type Document struct {
	Lines  []string
	Fields []Field
}

type builder struct {
	objects []string
}

func (b *builder) add(body string) int {
	b.objects = append(b.objects, body)
	return len(b.objects)
}

func (b *builder) set(num int, body string) {
	b.objects[num-1] = body
}

func ref(num int) string {
	return fmt.Sprintf("%d 0 R", num)
}

func literal(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

func stream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

func rect(r [4]float64, index int) string {
	if r == [4]float64{} {
		y := 700 - float64(index)*30
		r = [4]float64{200, y, 400, y + 20}
	}
	return fmt.Sprintf("[%g %g %g %g]", r[0], r[1], r[2], r[3])
}

// Build renders doc as PDF bytes.
func Build(doc Document) []byte {
	b := &builder{}

	catalog := b.add("")
	pages := b.add("")
	page := b.add("")
	helv := b.add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	zadb := b.add("<< /Type /Font /Subtype /Type1 /BaseFont /ZapfDingbats >>")

	var content strings.Builder
	content.WriteString("BT /Helv 12 Tf 16 TL 72 760 Td")
	for i, line := range doc.Lines {
		if i > 0 {
			content.WriteString(" T*")
		}
		content.WriteString(" " + literal(line) + " Tj")
	}
	content.WriteString(" ET")
	contents := b.add(stream("", content.String()))

	onAP := b.add(stream("/Type /XObject /Subtype /Form /BBox [0 0 20 20] /Resources << /Font << /ZaDb "+ref(zadb)+" >> >>",
		"q BT /ZaDb 12 Tf 2 4 Td (4) Tj ET Q"))
	offAP := b.add(stream("/Type /XObject /Subtype /Form /BBox [0 0 20 20]", ""))

	var fields, annots []string

	for i, f := range doc.Fields {
		widget := "/Type /Annot /Subtype /Widget /F 4 /P " + ref(page) + " /Rect " + rect(f.Rect, i)

		switch f.Kind {
		case KindCheckbox:
			on := "Yes"
			if len(f.States) > 0 {
				on = f.States[0]
			}
			state := "Off"
			if f.Value != "" {
				state = f.Value
			}
			num := b.add(fmt.Sprintf("<< %s /FT /Btn /T %s /V /%s /AS /%s /DA (/ZaDb 0 Tf 0 g) /MK << /CA (4) >> /AP << /N << /%s %s /Off %s >> >> >>",
				widget, literal(f.Name), state, state, on, ref(onAP), ref(offAP)))
			fields = append(fields, ref(num))
			annots = append(annots, ref(num))

		case KindRadio:
			parent := b.add("")
			var kids []string
			for j, s := range f.States {
				as := "Off"
				if s == f.Value {
					as = s
				}
				r := f.Rect
				if r == [4]float64{} {
					y := 700 - float64(i)*30
					r = [4]float64{200 + float64(j)*40, y, 220 + float64(j)*40, y + 20}
				}
				kid := b.add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /F 4 /P %s /Rect %s /Parent %s /AS /%s /DA (/ZaDb 0 Tf 0 g) /MK << /CA (l) >> /AP << /N << /%s %s /Off %s >> >> >>",
					ref(page), rect(r, i), ref(parent), as, s, ref(onAP), ref(offAP)))
				kids = append(kids, ref(kid))
				annots = append(annots, ref(kid))
			}
			value := "/Off"
			if f.Value != "" {
				value = "/" + f.Value
			}
			b.set(parent, fmt.Sprintf("<< /FT /Btn /Ff 49152 /T %s /V %s /Kids [%s] >>",
				literal(f.Name), value, strings.Join(kids, " ")))
			fields = append(fields, ref(parent))

		case KindCombo, KindList:
			flags := 0
			if f.Kind == KindCombo {
				flags = 1 << 17
			}
			opts := make([]string, 0, len(f.Options))
			for _, o := range f.Options {
				opts = append(opts, literal(o))
			}
			value := ""
			if f.Value != "" {
				value = " /V " + literal(f.Value)
			}
			num := b.add(fmt.Sprintf("<< %s /FT /Ch /Ff %d /T %s /Opt [%s]%s /DA (/Helv 10 Tf 0 g) >>",
				widget, flags, literal(f.Name), strings.Join(opts, " "), value))
			fields = append(fields, ref(num))
			annots = append(annots, ref(num))

		default:
			value := ""
			if f.Value != "" {
				value = " /V " + literal(f.Value)
			}
			num := b.add(fmt.Sprintf("<< %s /FT /Tx /T %s%s /DA (/Helv 10 Tf 0 g) >>",
				widget, literal(f.Name), value))
			fields = append(fields, ref(num))
			annots = append(annots, ref(num))
		}
	}

	acroForm := ""
	if len(doc.Fields) > 0 {
		acroForm = fmt.Sprintf(" /AcroForm << /Fields [%s] /DR << /Font << /Helv %s /ZaDb %s >> >> /DA (/Helv 0 Tf 0 g) >>",
			strings.Join(fields, " "), ref(helv), ref(zadb))
	}

	b.set(catalog, "<< /Type /Catalog /Pages "+ref(pages)+acroForm+" >>")
	b.set(pages, "<< /Type /Pages /Kids ["+ref(page)+"] /Count 1 >>")

	annotEntry := ""
	if len(annots) > 0 {
		annotEntry = " /Annots [" + strings.Join(annots, " ") + "]"
	}
	b.set(page, fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 612 792] /Resources << /Font << /Helv %s >> >> /Contents %s%s >>",
		ref(pages), ref(helv), ref(contents), annotEntry))

	return b.bytes(catalog)
}

func (b *builder) bytes(root int) []byte {
	var buf bytes.Buffer

	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %s >>\nstartxref\n%d\n%%%%EOF\n", len(b.objects)+1, ref(root), xref)

	return buf.Bytes()
}

// WriteFile writes doc into dir under name and returns the full path.
func WriteFile(tb testing.TB, dir, name string, doc Document) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(doc), 0o600); err != nil {
		tb.Fatalf("failed to write test PDF: %v", err)
	}

	return path
}

// SampleForm is a one-page form with a text layer and one field of each kind.
func SampleForm() Document {
	return Document{
		Lines: []string{"Applicant details", "First name:", "Date of birth:"},
		Fields: []Field{
			{Name: "first_name", Kind: KindText, Value: "old"},
			{Name: "dob", Kind: KindText},
			{Name: "agree", Kind: KindCheckbox},
			{Name: "contact", Kind: KindRadio, States: []string{"Email", "Phone"}},
			{Name: "country", Kind: KindCombo, Options: []string{"CH", "DE", "FR"}},
		},
	}
}
