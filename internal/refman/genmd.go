package refman

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var mdTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

const rootBasename = "RefMan"

var (
	numPrefixRegex = regexp.MustCompile(`[0-9]+_`)
	refTagRegex    = regexp.MustCompile(`\[\[[^\]]+\]\]`)
	htmlTagRegex   = regexp.MustCompile(`<[^>]+>`)
)

// genFilename turns a file id like "root.module.fs" into
// "RefMan_module_fs.<ext>", stripping numeric ordering prefixes.
func genFilename(fileID, ext string) string {
	parts := strings.Split(fileID, ".")
	parts[0] = rootBasename
	for i, p := range parts {
		parts[i] = numPrefixRegex.ReplaceAllString(p, "")
	}
	return strings.Join(parts, "_") + "." + ext
}

type GeneratorMD struct {
	manual        *ReferenceManual
	sitemapIn     string
	sitemapOut    string
	outDir        string
	linkDefs      string
	enableModules bool
	write         func(name string, data []byte) error

	generatedFiles map[string]string
}

type MDOption func(g *GeneratorMD)

// WithWriteFunc redirects generated page output, e.g. into a filestore.
// The sitemap and link-defs files are always written to their paths.
func WithWriteFunc(fn func(name string, data []byte) error) MDOption {
	return func(g *GeneratorMD) {
		g.write = fn
	}
}

func WithLinkDefs(path string) MDOption {
	return func(g *GeneratorMD) {
		g.linkDefs = path
	}
}

func WithModules(enabled bool) MDOption {
	return func(g *GeneratorMD) {
		g.enableModules = enabled
	}
}

func NewGeneratorMD(manual *ReferenceManual, outDir, sitemapIn, sitemapOut string, opts ...MDOption) *GeneratorMD {
	g := &GeneratorMD{
		manual:         manual,
		sitemapIn:      sitemapIn,
		sitemapOut:     sitemapOut,
		outDir:         outDir,
		enableModules:  true,
		generatedFiles: make(map[string]string),
	}
	g.write = func(name string, data []byte) error {
		return os.WriteFile(filepath.Join(g.outDir, name), data, 0o644)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GeneratorMD) objects() []*Object {
	objs := g.manual.SortedObjects()
	if g.enableModules {
		return objs
	}
	var out []*Object
	for _, obj := range objs {
		if obj.ObjType == ObjectTypeModule || obj.DefinedByModule != nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}

func (g *GeneratorMD) objectFileID(obj *Object) string {
	if obj.ObjType == ObjectTypeReturned && obj.DefinedByModule != nil {
		return g.objectFileID(obj.DefinedByModule) + "." + obj.Name
	}
	return "root." + obj.ObjType.String() + "." + obj.Name
}

// linkToObject builds the HTML link for a function, method or object.
// HTML instead of markdown so the links survive inside code blocks.
func (g *GeneratorMD) linkToObject(ref interface{}, text string) string {
	var link string
	switch obj := ref.(type) {
	case *Object:
		if text == "" {
			text = "<ins><code>" + obj.Name + "</code></ins>"
		}
		link = genFilename(g.objectFileID(obj), "html")
	case *Method:
		if text == "" {
			text = "<ins><code>`" + obj.Obj.Name + "." + obj.Name + "()`</code></ins>"
		}
		link = genFilename(g.objectFileID(obj.Obj), "html") + "#" + obj.Obj.Name + obj.Name
	case *Function:
		if text == "" {
			text = "<ins><code>`" + obj.Name + "()`</code></ins>"
		}
		link = genFilename("root.functions", "html") + "#" + obj.Name
	default:
		panic(fmt.Sprintf("invalid link target %T", ref))
	}
	return fmt.Sprintf("<a href=\"%s\">%s</a>", link, text)
}

func (g *GeneratorMD) renderType(t Type) string {
	parts := make([]string, 0, len(t.Resolved))
	for _, dt := range t.Resolved {
		base := g.linkToObject(dt.DataType, "<ins>"+dt.DataType.Name+"</ins>")
		if dt.Holds != nil {
			base += "[" + g.renderType(*dt.Holds) + "]"
		}
		parts = append(parts, base)
	}
	return strings.Join(parts, " | ")
}

func lenStripped(s string) int {
	return len(htmlTagRegex.ReplaceAllString(s, ""))
}

// renderSignature builds the aligned pseudo-code signature block.
func (g *GeneratorMD) renderSignature(fn *Function) string {
	if len(fn.Posargs) == 0 && len(fn.Optargs) == 0 && len(fn.Kwargs) == 0 && fn.Varargs == nil {
		return fmt.Sprintf("%s %s()", g.renderType(fn.Returns), fn.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n%s %s(\n", Brief(fn.Description), g.renderType(fn.Returns), fn.Name)

	var allArgs []*ArgBase
	for _, a := range fn.Posargs {
		allArgs = append(allArgs, &a.ArgBase)
	}
	for _, a := range fn.Optargs {
		allArgs = append(allArgs, &a.ArgBase)
	}
	if fn.Varargs != nil {
		allArgs = append(allArgs, &fn.Varargs.ArgBase)
	}
	maxType, maxName := 0, 0
	for _, a := range allArgs {
		if l := lenStripped(g.renderType(a.Type)); l > maxType {
			maxType = l
		}
		if len(a.Name) > maxName {
			maxName = len(a.Name)
		}
	}
	prepare := func(a *ArgBase) (typeStr, typeSpace, nameStr, nameSpace string) {
		typeStr = g.renderType(a.Type)
		typeSpace = strings.Repeat(" ", maxType-lenStripped(typeStr))
		nameSpace = strings.Repeat(" ", maxName-len(a.Name))
		escaped := strings.ReplaceAll(strings.ReplaceAll(a.Name, "<", "&lt;"), ">", "&gt;")
		nameStr = "<b>" + escaped + "</b>"
		return
	}

	for _, a := range fn.Posargs {
		ts, tsp, ns, nsp := prepare(&a.ArgBase)
		fmt.Fprintf(&b, "  %s%s %s,%s     # %s\n", ts, tsp, ns, nsp, Brief(a.Description))
	}
	for _, a := range fn.Optargs {
		ts, tsp, ns, nsp := prepare(&a.ArgBase)
		fmt.Fprintf(&b, "  %s%s [%s],%s   # %s\n", ts, tsp, ns, nsp, Brief(a.Description))
	}
	if fn.Varargs != nil {
		ts, tsp, ns, nsp := prepare(&fn.Varargs.ArgBase)
		fmt.Fprintf(&b, "  %s%s %s...,%s  # %s\n", ts, tsp, ns, nsp, Brief(fn.Varargs.Description))
	}

	kwargs := sortedKwargs(fn)
	if len(kwargs) == 0 {
		return b.String() + ")"
	}
	if len(allArgs) > 0 {
		b.WriteString("\n  # Keyword arguments:\n")
	}
	maxType, maxName = 0, 0
	for _, kw := range kwargs {
		if l := lenStripped(g.renderType(kw.Type)); l > maxType {
			maxType = l
		}
		if len(kw.Name) > maxName {
			maxName = len(kw.Name)
		}
	}
	anyRequired := false
	for _, kw := range kwargs {
		if kw.Required {
			anyRequired = true
		}
	}
	for _, kw := range kwargs {
		ts, tsp, ns, nsp := prepare(&kw.ArgBase)
		required := ""
		if anyRequired {
			required = "            "
			if kw.Required {
				required = " <i>[required]</i> "
			}
		}
		fmt.Fprintf(&b, "  %s%s : %s%s%s # %s\n", ns, nsp, ts, tsp, required, Brief(kw.Description))
	}
	return b.String() + ")"
}

func sortedKwargs(fn *Function) []*Kwarg {
	kwargs := make([]*Kwarg, 0, len(fn.Kwargs))
	for _, kw := range fn.Kwargs {
		kwargs = append(kwargs, kw)
	}
	return SortedAndFiltered(kwargs)
}

type argData struct {
	Name        string
	Type        string
	Description string
	Since       string
	Deprecated  string
	Default     string
	Optional    bool
	Required    bool
	Min         string
	Max         string
}

type funcData struct {
	Name        string
	BaseLevel   string
	Description string
	Notes       []string
	Warnings    []string
	Example     string
	Signature   string
	Posargs     []argData
	Kwargs      []argData
	Varargs     *argData
	VarargsList []argData
	Since       string
	Deprecated  string
}

type objectData struct {
	Name             string
	LongName         string
	Description      string
	Since            string
	Deprecated       string
	Notes            []string
	Warnings         []string
	Example          string
	Extends          string
	ReturnedBy       []string
	ExtendedBy       []string
	Methods          []funcData
	InheritedMethods []funcData
}

func (g *GeneratorMD) genArgData(name string, base *ArgBase, defaultValue string, optional, required bool) argData {
	return argData{
		Name:        name,
		Type:        g.renderType(base.Type),
		Description: base.Description,
		Since:       base.Since,
		Deprecated:  base.Deprecated,
		Default:     defaultValue,
		Optional:    optional,
		Required:    required,
	}
}

func (g *GeneratorMD) genFuncData(fn *Function, method bool) funcData {
	data := funcData{
		Name:        fn.Name,
		BaseLevel:   "#",
		Description: fn.Description,
		Notes:       fn.Notes,
		Warnings:    fn.Warnings,
		Example:     fn.Example,
		Signature:   g.renderSignature(fn),
		Since:       fn.Since,
		Deprecated:  fn.Deprecated,
	}
	if method {
		data.BaseLevel = "##"
	}
	for _, a := range fn.Posargs {
		data.Posargs = append(data.Posargs, g.genArgData(a.Name, &a.ArgBase, a.Default, false, false))
	}
	for _, a := range fn.Optargs {
		data.Posargs = append(data.Posargs, g.genArgData(a.Name, &a.ArgBase, a.Default, true, false))
	}
	for _, kw := range sortedKwargs(fn) {
		data.Kwargs = append(data.Kwargs, g.genArgData(kw.Name, &kw.ArgBase, kw.Default, false, kw.Required))
	}
	if fn.Varargs != nil {
		va := g.genArgData(fn.Varargs.Name, &fn.Varargs.ArgBase, "", false, false)
		va.Min = "0"
		if fn.Varargs.MinVarargs > 0 {
			va.Min = fmt.Sprintf("%d", fn.Varargs.MinVarargs)
		}
		va.Max = "infinity"
		if fn.Varargs.MaxVarargs > 0 {
			va.Max = fmt.Sprintf("%d", fn.Varargs.MaxVarargs)
		}
		data.Varargs = &va
		data.VarargsList = []argData{va}
	}
	return data
}

func (g *GeneratorMD) genMethodData(m *Method) funcData {
	data := g.genFuncData(&m.Function, true)
	data.Name = m.Obj.Name + "." + m.Name
	return data
}

// objectFromRef resolves a [[tag]] reference to its function, method or
// object.
func (g *GeneratorMD) objectFromRef(ref string) (interface{}, error) {
	ids := strings.Split(ref, ".")
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}
	if len(ids) > 2 || (strings.HasPrefix(ids[0], "@") && len(ids) == 2) {
		return nil, fmt.Errorf("invalid object id %q: %w", ref, appErr.ErrUnknownRef)
	}
	if strings.HasPrefix(ids[0], "@") {
		for _, obj := range g.manual.SortedObjects() {
			if obj.Name == ids[0][1:] {
				return obj, nil
			}
		}
		return nil, fmt.Errorf("unknown object %q: %w", ids[0][1:], appErr.ErrUnknownRef)
	}
	if len(ids) == 2 {
		for _, obj := range g.manual.SortedObjects() {
			if obj.Name != ids[0] {
				continue
			}
			for _, m := range obj.Methods {
				if m.Name == ids[1] {
					return m, nil
				}
			}
			return nil, fmt.Errorf("unknown method %s in object %s: %w", ids[1], ids[0], appErr.ErrUnknownRef)
		}
		return nil, fmt.Errorf("unknown object %q: %w", ids[0], appErr.ErrUnknownRef)
	}
	for _, fn := range g.manual.SortedFunctions() {
		if fn.Name == ids[0] {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("unknown function or object %q: %w", ids[0], appErr.ErrUnknownRef)
}

// writeFile substitutes [[ref]] and [[!file_id]] placeholders and writes
// the page through the configured writer.
func (g *GeneratorMD) writeFile(ctx context.Context, data, fileID string) error {
	filename := genFilename(fileID, "md")
	g.generatedFiles[fileID] = filename

	var substErr error
	out := refTagRegex.ReplaceAllStringFunc(data, func(match string) string {
		if substErr != nil {
			return match
		}
		id := strings.TrimSuffix(strings.TrimPrefix(match, "[["), "]]")
		if strings.HasPrefix(id, "!") {
			return genFilename(strings.TrimPrefix(id, "!"), "md")
		}
		ref, err := g.objectFromRef(id)
		if err != nil {
			substErr = err
			return match
		}
		return g.linkToObject(ref, "")
	})
	if substErr != nil {
		return fmt.Errorf("%s: %w", filename, substErr)
	}
	if err := g.write(filename, []byte(out)); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	logutil.GetLogger(ctx).Debug("generated", zap.String("file", filename))
	return nil
}

func (g *GeneratorMD) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := mdTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (g *GeneratorMD) writeFunctions(ctx context.Context) error {
	funcs := make([]funcData, 0, len(g.manual.SortedFunctions()))
	for _, fn := range g.manual.SortedFunctions() {
		funcs = append(funcs, g.genFuncData(fn, false))
	}
	out, err := g.render("functions.tmpl", map[string]interface{}{"Functions": funcs})
	if err != nil {
		return err
	}
	return g.writeFile(ctx, out, "root.functions")
}

func (g *GeneratorMD) writeObject(ctx context.Context, obj *Object) error {
	data := objectData{
		Name:        obj.Name,
		LongName:    obj.LongName,
		Description: obj.Description,
		Since:       obj.Since,
		Deprecated:  obj.Deprecated,
		Notes:       obj.Notes,
		Warnings:    obj.Warnings,
		Example:     obj.Example,
	}
	if obj.ExtendsObj != nil {
		data.Extends = obj.ExtendsObj.Name
	}
	for _, ref := range SortedAndFiltered(obj.ReturnedBy) {
		data.ReturnedBy = append(data.ReturnedBy, g.linkToObject(ref, ""))
	}
	for _, ext := range SortedAndFiltered(obj.ExtendedBy) {
		data.ExtendedBy = append(data.ExtendedBy, g.linkToObject(ext, ""))
	}
	for _, m := range SortedAndFiltered(obj.Methods) {
		data.Methods = append(data.Methods, g.genMethodData(m))
	}
	for _, m := range SortedAndFiltered(obj.InheritedMethods) {
		data.InheritedMethods = append(data.InheritedMethods, g.genMethodData(m))
	}
	out, err := g.render("object.tmpl", data)
	if err != nil {
		return err
	}
	return g.writeFile(ctx, out, g.objectFileID(obj))
}

type rootEntry struct {
	Indent string
	Link   string
	Brief  string
}

func (g *GeneratorMD) rootEntries(objs []*Object) []rootEntry {
	var entries []rootEntry
	for _, obj := range objs {
		entries = append(entries, rootEntry{Link: g.linkToObject(obj, ""), Brief: Brief(obj.Description)})
		for _, m := range SortedAndFiltered(obj.Methods) {
			entries = append(entries, rootEntry{Indent: "  ", Link: g.linkToObject(m, ""), Brief: Brief(m.Description)})
		}
		if obj.ObjType == ObjectTypeModule && g.enableModules {
			returned := g.manual.ReturnedByModule(obj)
			if len(returned) == 0 {
				continue
			}
			entries = append(entries, rootEntry{Indent: "  ", Link: "**New objects:**"})
			for _, sub := range g.rootEntries(returned) {
				sub.Indent = "  " + sub.Indent
				entries = append(entries, sub)
			}
		}
	}
	return entries
}

func (g *GeneratorMD) writeRootDocs(ctx context.Context) error {
	funcs := make([]rootEntry, 0)
	for _, fn := range g.manual.SortedFunctions() {
		funcs = append(funcs, rootEntry{Link: g.linkToObject(fn, ""), Brief: Brief(fn.Description)})
	}
	modules := g.manual.Modules()
	if !g.enableModules {
		modules = nil
	}
	data := map[string]interface{}{
		"Functions":  funcs,
		"Elementary": g.rootEntries(g.manual.Elementary()),
		"Builtins":   g.rootEntries(g.manual.Builtins()),
		"Returned":   g.rootEntries(g.manual.Returned()),
		"Modules":    g.rootEntries(modules),
	}
	out, err := g.render("root.tmpl", data)
	if err != nil {
		return err
	}
	if err := g.writeFile(ctx, out, "root"); err != nil {
		return err
	}
	dummies := []struct {
		id   string
		name string
	}{
		{"root.elementary", "Elementary types"},
		{"root.builtin", "Builtin objects"},
		{"root.returned", "Returned objects"},
		{"root.module", "Modules"},
	}
	for _, d := range dummies {
		out, err := g.render("dummy.tmpl", map[string]string{"Name": d.name})
		if err != nil {
			return err
		}
		if err := g.writeFile(ctx, out, d.id); err != nil {
			return err
		}
	}
	return nil
}

// configureSitemap replaces the @REFMAN_PLACEHOLDER@ line with the
// generated files, indented one tab per file-id dot.
func (g *GeneratorMD) configureSitemap() error {
	raw, err := os.ReadFile(g.sitemapIn)
	if err != nil {
		return fmt.Errorf("read sitemap: %w", err)
	}
	var out strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n") {
		if !strings.Contains(line, "@REFMAN_PLACEHOLDER@") {
			out.WriteString(line + "\n")
			continue
		}
		baseIndent := strings.ReplaceAll(line, "@REFMAN_PLACEHOLDER@", "")
		ids := make([]string, 0, len(g.generatedFiles))
		for id := range g.generatedFiles {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			out.WriteString(baseIndent + strings.Repeat("\t", strings.Count(id, ".")) + g.generatedFiles[id] + "\n")
		}
	}
	return os.WriteFile(g.sitemapOut, []byte(out.String()), 0o644)
}

// writeLinkDefs dumps the id to link mapping consumed by the site
// builder's tag substitution.
func (g *GeneratorMD) writeLinkDefs() error {
	defs := make(map[string]string)
	for _, fn := range g.manual.SortedFunctions() {
		defs[fn.Name] = genFilename("root.functions", "html") + "#" + fn.Name
	}
	for _, obj := range g.objects() {
		file := genFilename(g.objectFileID(obj), "html")
		defs["@"+obj.Name] = file
		for _, m := range SortedAndFiltered(obj.Methods) {
			defs[obj.Name+"."+m.Name] = file + "#" + obj.Name + m.Name
		}
	}
	for id, file := range g.generatedFiles {
		defs["!"+id] = file
	}
	data, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(g.linkDefs, data, 0o644)
}

func (g *GeneratorMD) Generate(ctx context.Context) error {
	if err := g.writeFunctions(ctx); err != nil {
		return err
	}
	for _, obj := range g.objects() {
		if err := g.writeObject(ctx, obj); err != nil {
			return err
		}
	}
	if err := g.writeRootDocs(ctx); err != nil {
		return err
	}
	if g.sitemapIn != "" {
		if err := g.configureSitemap(); err != nil {
			return err
		}
	}
	if g.linkDefs != "" {
		if err := g.writeLinkDefs(); err != nil {
			return err
		}
	}
	return nil
}
