package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/loomworks/loom/internal/prompt"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a prompt template against named values",
	Long: `Render a Jinja-style prompt template against named values.

The template's free variables become its required inputs. Values are
supplied with repeated --var key=value flags or a YAML mapping file.

Examples:
  loom render -t "Translate to {{ lang }}. Context: {{ text }}" \
      --var lang=spanish --var "text=I can't speak spanish."
  loom render --template-file prompt.j2 --vars-file values.yaml
  loom render -t "{{ a }} and {{ b }}" --list-vars`,
	RunE: runRender,
}

var (
	renderTemplate     string
	renderTemplateFile string
	renderVars         []string
	renderVarsFile     string
	renderListVars     bool
)

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Template string")
	renderCmd.Flags().StringVar(&renderTemplateFile, "template-file", "", "Read the template from a file")
	renderCmd.Flags().StringArrayVar(&renderVars, "var", nil, "Template variable as key=value (repeatable)")
	renderCmd.Flags().StringVar(&renderVarsFile, "vars-file", "", "YAML file with template variables")
	renderCmd.Flags().BoolVar(&renderListVars, "list-vars", false, "Print the template's free variables and exit")
}

func runRender(cmd *cobra.Command, args []string) error {
	source, err := templateSource()
	if err != nil {
		return err
	}

	builder, err := prompt.New(source)
	if err != nil {
		return err
	}

	if renderListVars {
		for _, name := range builder.Variables() {
			fmt.Println(name)
		}
		return nil
	}

	values, err := templateValues()
	if err != nil {
		return err
	}

	rendered, err := builder.Render(values)
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

// templateSource resolves the template from --template or --template-file.
func templateSource() (string, error) {
	switch {
	case renderTemplate != "" && renderTemplateFile != "":
		return "", fmt.Errorf("use either --template or --template-file, not both")
	case renderTemplate != "":
		return renderTemplate, nil
	case renderTemplateFile != "":
		data, err := os.ReadFile(renderTemplateFile)
		if err != nil {
			return "", fmt.Errorf("read template file: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("a template is required: pass --template or --template-file")
}

// templateValues merges --vars-file values with --var overrides.
func templateValues() (map[string]any, error) {
	values := map[string]any{}

	if renderVarsFile != "" {
		data, err := os.ReadFile(renderVarsFile)
		if err != nil {
			return nil, fmt.Errorf("read vars file: %w", err)
		}
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse vars file: %w", err)
		}
	}

	for _, kv := range renderVars {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", kv)
		}
		values[key] = value
	}

	return values, nil
}
