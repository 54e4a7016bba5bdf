package gen

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
)

//nolint:gochecknoglobals
var (
	// templateByteBuffer is re-used by all template construction to avoid
	// allocating more memory than is needed. Generation is sequential.
	templateByteBuffer = &bytes.Buffer{}

	testHarnessWriteFile = os.WriteFile
)

func (o *Output) initOutFolder(wipe bool) error {
	if o.OutFolder == "" {
		return fmt.Errorf("no output folder for %q", o.Key)
	}

	if wipe {
		if err := os.RemoveAll(o.OutFolder); err != nil {
			return fmt.Errorf("unable to wipe output folder %s: %w", o.OutFolder, err)
		}
	}

	if err := os.MkdirAll(o.OutFolder, os.ModePerm); err != nil {
		return fmt.Errorf("unable to create output folder %s: %w", o.OutFolder, err)
	}

	return nil
}

// fileName is the file the table is written to, empty to skip the table
func (o *Output) fileName(data *TemplateData) string {
	switch o.Key {
	case TraitsOutput:
		if !data.Relationships.HasAny() {
			return ""
		}
		return data.Trait + ".php"
	default:
		return data.Model + ".php"
	}
}

func (o *Output) generate(data *TemplateData) error {
	fName := o.fileName(data)
	if fName == "" {
		return nil
	}

	out := templateByteBuffer
	out.Reset()

	for _, name := range o.templateNames() {
		if err := executeTemplate(out, o.templates, name, data); err != nil {
			return err
		}
	}

	// Skip writing the file if the content is empty
	if len(bytes.TrimSpace(out.Bytes())) == 0 {
		return nil
	}

	return writeFile(o.OutFolder, fName, out)
}

// writeFile writes to the given folder and filename
func writeFile(outFolder string, fileName string, input io.Reader) error {
	byt, err := io.ReadAll(input)
	if err != nil {
		return err
	}

	path := filepath.Join(outFolder, fileName)
	if err := testHarnessWriteFile(path, byt, 0o664); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}

	return nil
}

// executeTemplate takes a template and returns the output of the template
// execution.
func executeTemplate(buf io.Writer, t *template.Template, name string, data *TemplateData) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to execute template: %s\npanic: %+v", name, r)
		}
	}()

	if err := t.ExecuteTemplate(buf, name, data); err != nil {
		return fmt.Errorf("failed to execute template: %s: %w", name, err)
	}
	return nil
}
