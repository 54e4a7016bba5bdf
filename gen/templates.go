package gen

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/stephenafamo/relgen/gen/drivers"
	"github.com/stephenafamo/relgen/gen/naming"
	"github.com/stephenafamo/relgen/orm"
)

//go:embed templates
var templates embed.FS

//nolint:gochecknoglobals
var (
	ModelTemplates, _ = fs.Sub(templates, "templates/models")
	TraitTemplates, _ = fs.Sub(templates, "templates/traits")
)

// TemplateData is passed to every template, once per table
type TemplateData struct {
	Driver     string
	Strategy   string
	Connection string

	ModelNamespace string
	TraitNamespace string
	Extend         string

	Table drivers.Table
	Model string
	Trait string
	// Set when the primary key is a single column not named id
	PrimaryKey string
	// False when the primary key is not a single auto incrementing column
	Incrementing bool
	Columns      []string

	Relationships *TableRelationships
	// Fully qualified related model classes, sorted
	RelatedModels []string
}

func newTemplateData(c Config, strategy naming.Strategy, driver string, table drivers.Table, rels *TableRelationships) *TemplateData {
	model := strategy.ModelName(table.Key)

	data := &TemplateData{
		Driver:         driver,
		Strategy:       strategy.Name(),
		Connection:     c.Connection,
		ModelNamespace: c.ModelNamespace,
		TraitNamespace: c.TraitNamespace,
		Extend:         c.Extend,
		Table:          table,
		Model:          model,
		Trait:          fmt.Sprintf("Has%sRelations", model),
		Relationships:  rels,
	}

	if pk := table.PrimaryKeyColumns(); len(pk) == 1 && pk[0] != "id" {
		data.PrimaryKey = pk[0]
	}
	data.Incrementing = incrementing(table)
	data.Columns = drivers.ColumnNames(table.Columns)

	for _, rel := range rels.All() {
		class := c.ModelNamespace + `\` + rel.Target
		if !slices.Contains(data.RelatedModels, class) {
			data.RelatedModels = append(data.RelatedModels, class)
		}
	}
	sort.Strings(data.RelatedModels)

	return data
}

// incrementing leaves the ORM default alone when the key column is unknown
func incrementing(table drivers.Table) bool {
	pk := table.PrimaryKeyColumns()
	switch {
	case len(pk) > 1:
		return false
	case len(pk) == 0 || !table.HasColumn(pk[0]):
		return true
	default:
		return table.GetColumn(pk[0]).AutoIncr
	}
}

// relationArgs are the key arguments passed to the ORM method after the
// related class, in the order the method expects them
func relationArgs(rel orm.Relationship) []string {
	switch rel.Kind {
	case orm.BelongsTo:
		return []string{rel.LocalColumn, rel.OwnerKey()}
	case orm.HasOne, orm.HasMany:
		return []string{rel.ForeignColumn, rel.LocalColumn}
	case orm.BelongsToMany:
		return []string{rel.Pivot, rel.ForeignPivotKey(), rel.RelatedPivotKey()}
	default:
		return nil
	}
}

// phpQuote returns a single quoted PHP string literal
func phpQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

var templateFunctions = template.FuncMap{
	"relationArgs": relationArgs,
	"phpQuote":     phpQuote,
}

func (o *Output) initTemplates(funcs template.FuncMap) error {
	if len(o.Templates) == 0 {
		return fmt.Errorf("no templates for output %q", o.Key)
	}

	o.templates = template.New(o.Key).Funcs(sprig.TxtFuncMap()).Funcs(templateFunctions).Funcs(funcs)

	for _, tempFS := range o.Templates {
		if tempFS == nil {
			continue
		}

		err := fs.WalkDir(tempFS, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() || !strings.HasSuffix(path, ".tpl") {
				return nil
			}

			content, err := fs.ReadFile(tempFS, path)
			if err != nil {
				return fmt.Errorf("failed to read template %s: %w", path, err)
			}

			if _, err := o.templates.New(path).Parse(string(content)); err != nil {
				return fmt.Errorf("failed to parse template %s: %w", path, err)
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("loading templates: %w", err)
		}
	}

	return nil
}

// templateNames are the loaded file templates in execution order
func (o *Output) templateNames() []string {
	var names []string
	for _, t := range o.templates.Templates() {
		if strings.HasSuffix(t.Name(), ".tpl") {
			names = append(names, t.Name())
		}
	}

	sort.Strings(names)
	return names
}
