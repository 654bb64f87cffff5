package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/latinkbd/kbdswitch/internal/configpaths"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration template"`
}

// ConfigInit scaffolds a configuration file for a specific command.
type ConfigInit struct {
	Command string `arg:"" name:"command" help:"Command to generate config for" enum:"server,replay,interactive"`
	Format  string `help:"Output format" enum:"json,yaml,yml,toml" default:"json"`
	Output  string `help:"Destination file path (defaults to <command>.<format> in the current directory)"`
	Force   bool   `help:"Overwrite if the file already exists"`
}

var templateCommands = map[string]reflect.Type{
	"server":      reflect.TypeFor[Server](),
	"replay":      reflect.TypeFor[Replay](),
	"interactive": reflect.TypeFor[Interactive](),
}

// Run writes the defaults of the chosen command, with each flag's help text as
// a comment where the format has comments.
func (c *ConfigInit) Run() error {
	format := normalizeFormat(c.Format)
	if format == "" {
		return fmt.Errorf("unsupported format: %s", c.Format)
	}
	t, ok := templateCommands[c.Command]
	if !ok {
		return errors.New("unknown command; expected 'server', 'replay' or 'interactive'")
	}

	dest := c.Output
	if dest == "" {
		dest = c.Command + "." + configpaths.Ext(format)
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}

	data, err := renderTemplate(format, templateFields(t))
	if err != nil {
		return fmt.Errorf("render %s template: %w", format, err)
	}
	return os.WriteFile(dest, data, 0o644)
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return ""
	}
}

// templateField is one configuration key. Sections have Fields and no Value.
type templateField struct {
	Key    string
	Help   string
	Value  any
	Fields []templateField
}

func lowerCamel(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// templateFields lists the configurable fields of a kong command struct in
// declaration order. Positional arguments and hidden fields are left out.
func templateFields(t reflect.Type) []templateField {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var out []templateField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" {
			continue
		}
		if _, ok := f.Tag.Lookup("arg"); ok {
			continue
		}

		if _, ok := f.Tag.Lookup("embed"); ok {
			sub := templateFields(f.Type)
			name := strings.TrimSuffix(f.Tag.Get("prefix"), ".")
			if name == "" {
				out = append(out, sub...)
			} else if len(sub) > 0 {
				out = append(out, templateField{Key: name, Fields: sub})
			}
			continue
		}

		key := lowerCamel(f.Name)
		if f.Type.Kind() == reflect.Struct && !isDuration(f.Type) {
			if sub := templateFields(f.Type); len(sub) > 0 {
				out = append(out, templateField{Key: key, Help: f.Tag.Get("help"), Fields: sub})
			}
			continue
		}
		if val := defaultValueForField(f.Type, f.Tag.Get("default")); val != nil {
			out = append(out, templateField{Key: key, Help: f.Tag.Get("help"), Value: val})
		}
	}
	return out
}

func isDuration(t reflect.Type) bool {
	return t.PkgPath() == "time" && t.Name() == "Duration"
}

// defaultValueForField returns the typed default of a flag, or nil when the
// type has no template representation.
func defaultValueForField(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if isDuration(t) {
		if def != "" {
			return def
		}
		return "0s"
	}
	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Float32, reflect.Float64:
		f, _ := strconv.ParseFloat(def, 64)
		return f
	default:
		return nil
	}
}

func renderTemplate(format string, fields []templateField) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(templateMap(fields), "", "  ")
	case "yaml":
		node, err := templateNode(fields)
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(node)
	case "toml":
		tree, err := toml.TreeFromMap(map[string]any{})
		if err != nil {
			return nil, err
		}
		fillTree(tree, nil, fields)
		return tree.Marshal()
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

func templateMap(fields []templateField) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Fields != nil {
			out[f.Key] = templateMap(f.Fields)
		} else {
			out[f.Key] = f.Value
		}
	}
	return out
}

// templateNode keeps declaration order and carries help texts as comments.
func templateNode(fields []templateField) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: f.Key, HeadComment: f.Help}
		var val *yaml.Node
		if f.Fields != nil {
			sub, err := templateNode(f.Fields)
			if err != nil {
				return nil, err
			}
			val = sub
		} else {
			val = &yaml.Node{}
			if err := val.Encode(f.Value); err != nil {
				return nil, fmt.Errorf("encode %s: %w", f.Key, err)
			}
		}
		m.Content = append(m.Content, key, val)
	}
	return m, nil
}

func fillTree(tree *toml.Tree, path []string, fields []templateField) {
	for _, f := range fields {
		p := append(append([]string{}, path...), f.Key)
		if f.Fields != nil {
			fillTree(tree, p, f.Fields)
			continue
		}
		tree.SetPathWithComment(p, f.Help, false, f.Value)
	}
}
