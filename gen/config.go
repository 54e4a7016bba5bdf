package gen

import (
	"io/fs"
	"text/template"

	"github.com/stephenafamo/relgen/gen/naming"
)

const (
	DefaultModelNamespace = `App\Models\Generated`
	DefaultTraitNamespace = `App\Models\Generated\Relations`
	DefaultModelPath      = "app/Models/Generated"
	DefaultTraitPath      = "app/Models/Generated/Relations"
	DefaultExtend         = `Illuminate\Database\Eloquent\Model`
)

// Config for the running of the commands
type Config struct {
	// legacy or column_based (default)
	NamingStrategy string `yaml:"naming_strategy" json:"naming_strategy"`
	// The connection name set on every model. Defaults to the driver dialect
	Connection string `yaml:"connection" json:"connection"`

	ModelNamespace string `yaml:"model_namespace" json:"model_namespace"`
	TraitNamespace string `yaml:"trait_namespace" json:"trait_namespace"`
	ModelPath      string `yaml:"model_path" json:"model_path"`
	TraitPath      string `yaml:"trait_path" json:"trait_path"`
	// The fully qualified class every model extends
	Extend string `yaml:"extend" json:"extend"`

	// Delete the output folders (rm -rf) before generation to ensure sanity
	Wipe bool `yaml:"wipe" json:"wipe"`
	// Extra template directories per output key (models, traits).
	// Templates with the same name replace the built in ones.
	Templates map[string][]string `yaml:"templates" json:"templates"`

	Inflections naming.Inflections `yaml:"inflections" json:"inflections"`
}

// Defaults returns the config values used when a key is not set
func Defaults() map[string]any {
	return map[string]any{
		"naming_strategy": "column_based",
		"model_namespace": DefaultModelNamespace,
		"trait_namespace": DefaultTraitNamespace,
		"model_path":      DefaultModelPath,
		"trait_path":      DefaultTraitPath,
		"extend":          DefaultExtend,
	}
}

func (c Config) withDefaults() Config {
	if c.ModelNamespace == "" {
		c.ModelNamespace = DefaultModelNamespace
	}
	if c.TraitNamespace == "" {
		c.TraitNamespace = DefaultTraitNamespace
	}
	if c.ModelPath == "" {
		c.ModelPath = DefaultModelPath
	}
	if c.TraitPath == "" {
		c.TraitPath = DefaultTraitPath
	}
	if c.Extend == "" {
		c.Extend = DefaultExtend
	}
	return c
}

const (
	ModelsOutput = "models"
	TraitsOutput = "traits"
)

// Output is a folder that receives one file per table
type Output struct {
	// The key has to be unique in a gen.State.
	// It also decides the file name, see ModelsOutput and TraitsOutput
	Key       string
	OutFolder string
	Templates []fs.FS

	templates *template.Template
}
