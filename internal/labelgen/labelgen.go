// Package labelgen renders the engraving job file consumed by the
// desktop engraver: an XML-ish label description with the order
// number encoded as a Code 128 value sequence.
package labelgen

import (
	"bytes"
	"fmt"
	"text/template"
)

type Line struct {
	Text   string
	Height float64 // mm
}

type Job struct {
	OrderNumber string
	Material    string
	WidthMM     float64
	HeightMM    float64
	Lines       []Line
}

const jobTemplate = `<EngraveJob version="1">
  <Label width="{{printf "%.1f" .WidthMM}}" height="{{printf "%.1f" .HeightMM}}" material="{{.Material}}">
{{- range .Lines}}
    <TextLine height="{{printf "%.1f" .Height}}">{{.Text}}</TextLine>
{{- end}}
    <Barcode symbology="code128" value="{{.OrderNumber}}" points="{{.BarcodePoints}}"/>
  </Label>
</EngraveJob>
`

type Generator struct {
	tmpl *template.Template
}

func New() (*Generator, error) {
	tmpl, err := template.New("job").Parse(jobTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse job template: %w", err)
	}
	return &Generator{tmpl: tmpl}, nil
}

type jobView struct {
	Job
	BarcodePoints string
}

func (g *Generator) Render(job Job) ([]byte, error) {
	if job.OrderNumber == "" {
		return nil, fmt.Errorf("job needs an order number")
	}
	points, err := Code128Points(job.OrderNumber)
	if err != nil {
		return nil, err
	}
	if job.WidthMM <= 0 {
		job.WidthMM = 70
	}
	if job.HeightMM <= 0 {
		job.HeightMM = 25
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, jobView{Job: job, BarcodePoints: points}); err != nil {
		return nil, fmt.Errorf("render job: %w", err)
	}
	return buf.Bytes(), nil
}

// Code128Points encodes s in Code 128 subset B and returns the
// space-separated value sequence (start code, data, checksum, stop)
// the engraver's barcode element expects.
func Code128Points(s string) (string, error) {
	const (
		startB = 104
		stop   = 106
	)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d", startB)

	checksum := startB
	for i, r := range s {
		if r < 32 || r > 126 {
			return "", fmt.Errorf("character %q not encodable in code128 subset B", r)
		}
		v := int(r) - 32
		checksum += v * (i + 1)
		fmt.Fprintf(&buf, " %d", v)
	}
	fmt.Fprintf(&buf, " %d %d", checksum%103, stop)
	return buf.String(), nil
}
