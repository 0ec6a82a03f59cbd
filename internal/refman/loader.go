package refman

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// flexString accepts any YAML scalar and keeps its text form, so
// "default: false" comes out as the string "false".
type flexString string

func (s *flexString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar, got %v", node.Kind)
	}
	*s = flexString(node.Value)
	return nil
}

// stringList accepts either a single string or a sequence of strings.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		if v != "" {
			*s = stringList{v}
		}
		return nil
	}
	var v []string
	if err := node.Decode(&v); err != nil {
		return err
	}
	*s = v
	return nil
}

// orderedMap keeps mapping entries in document order. Positional
// argument order is significant.
type orderedMap[T any] struct {
	Keys []string
	Vals []T
}

func (m *orderedMap[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping, got %v", node.Kind)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		var val T
		if err := node.Content[i+1].Decode(&val); err != nil {
			return err
		}
		m.Keys = append(m.Keys, key)
		m.Vals = append(m.Vals, val)
	}
	return nil
}

type rawPosArg struct {
	Description string     `yaml:"description"`
	Type        string     `yaml:"type"`
	Since       string     `yaml:"since"`
	Deprecated  string     `yaml:"deprecated"`
	Default     flexString `yaml:"default"`
}

type rawVarArgs struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Since       string `yaml:"since"`
	Deprecated  string `yaml:"deprecated"`
	MinVarargs  *int   `yaml:"min_varargs"`
	MaxVarargs  *int   `yaml:"max_varargs"`
}

type rawKwarg struct {
	Description string     `yaml:"description"`
	Type        string     `yaml:"type"`
	Since       string     `yaml:"since"`
	Deprecated  string     `yaml:"deprecated"`
	Required    bool       `yaml:"required"`
	Default     flexString `yaml:"default"`
}

type rawFunction struct {
	Name           string                `yaml:"name"`
	Description    string                `yaml:"description"`
	Since          string                `yaml:"since"`
	Deprecated     string                `yaml:"deprecated"`
	Returns        string                `yaml:"returns"`
	Notes          []string              `yaml:"notes"`
	Warnings       []string              `yaml:"warnings"`
	Example        string                `yaml:"example"`
	Posargs        orderedMap[rawPosArg] `yaml:"posargs"`
	Optargs        orderedMap[rawPosArg] `yaml:"optargs"`
	Varargs        *rawVarArgs           `yaml:"varargs"`
	Kwargs         orderedMap[rawKwarg]  `yaml:"kwargs"`
	PosargsInherit string                `yaml:"posargs_inherit"`
	OptargsInherit string                `yaml:"optargs_inherit"`
	VarargsInherit string                `yaml:"varargs_inherit"`
	KwargsInherit  stringList            `yaml:"kwargs_inherit"`
	ArgFlattening  *bool                 `yaml:"arg_flattening"`
	Hidden         bool                  `yaml:"hidden"`
}

type rawObject struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Since       string        `yaml:"since"`
	Deprecated  string        `yaml:"deprecated"`
	LongName    string        `yaml:"long_name"`
	Extends     string        `yaml:"extends"`
	Notes       []string      `yaml:"notes"`
	Warnings    []string      `yaml:"warnings"`
	Example     string        `yaml:"example"`
	Methods     []rawFunction `yaml:"methods"`
	IsContainer bool          `yaml:"is_container"`
	Hidden      bool          `yaml:"hidden"`
}

// Loader reads the reference manual YAML directory layout:
// functions/*.yaml, elementary/, objects/, builtins/ and
// modules/<mod>/module.yaml with sibling returned objects.
type Loader struct {
	yamlDir    string
	strict     bool
	inputFiles []string
}

func NewLoader(yamlDir string, strict bool) *Loader {
	return &Loader{yamlDir: yamlDir, strict: strict}
}

// InputFiles lists every file consumed by the last Load, for depfile
// generation.
func (l *Loader) InputFiles() []string {
	return l.inputFiles
}

func (l *Loader) Load(ctx context.Context) (*ReferenceManual, error) {
	l.inputFiles = nil
	manual := &ReferenceManual{}

	funcFiles, err := l.listYaml("functions")
	if err != nil {
		return nil, err
	}
	for _, file := range funcFiles {
		fn, err := l.loadFunction(ctx, file)
		if err != nil {
			return nil, err
		}
		manual.Functions = append(manual.Functions, fn)
	}

	for _, kind := range []struct {
		dir string
		typ ObjectType
	}{
		{"elementary", ObjectTypeElementary},
		{"objects", ObjectTypeReturned},
		{"builtins", ObjectTypeBuiltin},
	} {
		files, err := l.listYaml(kind.dir)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			obj, err := l.loadObject(ctx, file, kind.typ)
			if err != nil {
				return nil, err
			}
			manual.Objects = append(manual.Objects, obj)
		}
	}

	moduleDirs, err := l.listDirs("modules")
	if err != nil {
		return nil, err
	}
	for _, dir := range moduleDirs {
		objs, err := l.loadModule(ctx, dir)
		if err != nil {
			return nil, err
		}
		manual.Objects = append(manual.Objects, objs...)
	}

	if !l.strict {
		logutil.GetLogger(ctx).Warn("reference manual loaded with the lenient fastyaml mode, results are best-effort")
	}
	return manual, nil
}

func (l *Loader) listYaml(sub string) ([]string, error) {
	dir := filepath.Join(l.yamlDir, sub)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) listDirs(sub string) ([]string, error) {
	dir := filepath.Join(l.yamlDir, sub)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (l *Loader) decode(ctx context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	l.inputFiles = append(l.inputFiles, path)
	label, _ := filepath.Rel(l.yamlDir, path)
	logutil.GetLogger(ctx).Debug("loading", zap.String("file", filepath.ToSlash(label)))

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(l.strict)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (l *Loader) loadFunction(ctx context.Context, path string) (*Function, error) {
	var raw rawFunction
	if err := l.decode(ctx, path, &raw); err != nil {
		return nil, err
	}
	fn, err := convertFunction(&raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fn, nil
}

func (l *Loader) loadObject(ctx context.Context, path string, typ ObjectType) (*Object, error) {
	var raw rawObject
	if err := l.decode(ctx, path, &raw); err != nil {
		return nil, err
	}
	obj, err := convertObject(&raw, typ)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obj, nil
}

func (l *Loader) loadModule(ctx context.Context, dir string) ([]*Object, error) {
	module, err := l.loadObject(ctx, filepath.Join(dir, "module.yaml"), ObjectTypeModule)
	if err != nil {
		return nil, err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	objs := []*Object{module}
	for _, file := range files {
		if filepath.Base(file) == "module.yaml" {
			continue
		}
		obj, err := l.loadObject(ctx, file, ObjectTypeReturned)
		if err != nil {
			return nil, err
		}
		obj.DefinedByModule = module
		objs = append(objs, obj)
	}
	return objs, nil
}

func convertFunction(raw *rawFunction) (*Function, error) {
	if raw.Name == "" {
		return nil, fmt.Errorf("function has no name")
	}
	if raw.Description == "" {
		return nil, fmt.Errorf("function %s has no description", raw.Name)
	}
	if raw.Returns == "" {
		return nil, fmt.Errorf("function %s has no returns", raw.Name)
	}
	fn := &Function{
		NamedObject:    NamedObject{Name: raw.Name, Description: raw.Description, Hidden: raw.Hidden},
		FeatureCheck:   FeatureCheck{Since: raw.Since, Deprecated: raw.Deprecated},
		Notes:          raw.Notes,
		Warnings:       raw.Warnings,
		Example:        raw.Example,
		Returns:        Type{Raw: raw.Returns},
		Kwargs:         make(map[string]*Kwarg),
		PosargsInherit: raw.PosargsInherit,
		OptargsInherit: raw.OptargsInherit,
		VarargsInherit: raw.VarargsInherit,
		KwargsInherit:  raw.KwargsInherit,
		ArgFlattening:  true,
	}
	if raw.ArgFlattening != nil {
		fn.ArgFlattening = *raw.ArgFlattening
	}
	for i, key := range raw.Posargs.Keys {
		fn.Posargs = append(fn.Posargs, convertPosArg(key, raw.Posargs.Vals[i]))
	}
	for i, key := range raw.Optargs.Keys {
		fn.Optargs = append(fn.Optargs, convertPosArg(key, raw.Optargs.Vals[i]))
	}
	for i, key := range raw.Kwargs.Keys {
		v := raw.Kwargs.Vals[i]
		fn.Kwargs[key] = &Kwarg{
			ArgBase: ArgBase{
				NamedObject:  NamedObject{Name: key, Description: v.Description},
				FeatureCheck: FeatureCheck{Since: v.Since, Deprecated: v.Deprecated},
				Type:         Type{Raw: v.Type},
			},
			Required: v.Required,
			Default:  string(v.Default),
		}
	}
	if raw.Varargs != nil {
		va := &VarArgs{
			ArgBase: ArgBase{
				NamedObject:  NamedObject{Name: raw.Varargs.Name, Description: raw.Varargs.Description},
				FeatureCheck: FeatureCheck{Since: raw.Varargs.Since, Deprecated: raw.Varargs.Deprecated},
				Type:         Type{Raw: raw.Varargs.Type},
			},
			MinVarargs: -1,
			MaxVarargs: -1,
		}
		if raw.Varargs.MinVarargs != nil {
			va.MinVarargs = *raw.Varargs.MinVarargs
		}
		if raw.Varargs.MaxVarargs != nil {
			va.MaxVarargs = *raw.Varargs.MaxVarargs
		}
		fn.Varargs = va
	}
	return fn, nil
}

func convertPosArg(name string, raw rawPosArg) *PosArg {
	return &PosArg{
		ArgBase: ArgBase{
			NamedObject:  NamedObject{Name: name, Description: raw.Description},
			FeatureCheck: FeatureCheck{Since: raw.Since, Deprecated: raw.Deprecated},
			Type:         Type{Raw: raw.Type},
		},
		Default: string(raw.Default),
	}
}

func convertObject(raw *rawObject, typ ObjectType) (*Object, error) {
	if raw.Name == "" {
		return nil, fmt.Errorf("object has no name")
	}
	if raw.Description == "" {
		return nil, fmt.Errorf("object %s has no description", raw.Name)
	}
	if raw.LongName == "" {
		return nil, fmt.Errorf("object %s has no long_name", raw.Name)
	}
	obj := &Object{
		NamedObject:  NamedObject{Name: raw.Name, Description: raw.Description, Hidden: raw.Hidden},
		FeatureCheck: FeatureCheck{Since: raw.Since, Deprecated: raw.Deprecated},
		LongName:     raw.LongName,
		Example:      raw.Example,
		Notes:        raw.Notes,
		Warnings:     raw.Warnings,
		Extends:      raw.Extends,
		IsContainer:  raw.IsContainer,
		ObjType:      typ,
	}
	for i := range raw.Methods {
		fn, err := convertFunction(&raw.Methods[i])
		if err != nil {
			return nil, err
		}
		obj.Methods = append(obj.Methods, &Method{Function: *fn, Obj: obj})
	}
	return obj, nil
}
