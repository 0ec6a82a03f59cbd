package refman

import (
	"fmt"
	"strings"

	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
)

type resolver struct {
	manual  *ReferenceManual
	objects map[string]*Object
	funcs   map[string]*Function
}

// Resolve validates cross references and fills the derived fields:
// extends links, argument inheritance, inherited methods, resolved types
// and the returned-by reverse index.
func Resolve(manual *ReferenceManual) error {
	r := &resolver{
		manual:  manual,
		objects: make(map[string]*Object),
		funcs:   make(map[string]*Function),
	}
	for _, obj := range manual.Objects {
		if _, dup := r.objects[obj.Name]; dup {
			return fmt.Errorf("duplicate object name %q", obj.Name)
		}
		r.objects[obj.Name] = obj
	}
	for _, fn := range manual.Functions {
		if _, dup := r.funcs[fn.Name]; dup {
			return fmt.Errorf("duplicate function name %q", fn.Name)
		}
		r.funcs[fn.Name] = fn
	}

	for _, obj := range manual.Objects {
		if obj.Extends == "" {
			continue
		}
		parent, ok := r.objects[obj.Extends]
		if !ok {
			return fmt.Errorf("object %s extends unknown object %q: %w", obj.Name, obj.Extends, appErr.ErrUnknownRef)
		}
		obj.ExtendsObj = parent
		parent.ExtendedBy = append(parent.ExtendedBy, obj)
	}

	for _, fn := range manual.Functions {
		if err := r.inherit(fn); err != nil {
			return err
		}
	}
	for _, obj := range manual.Objects {
		for _, m := range obj.Methods {
			if err := r.inherit(&m.Function); err != nil {
				return err
			}
		}
	}

	for _, fn := range manual.Functions {
		if err := r.resolveFunctionTypes(fn, fn); err != nil {
			return err
		}
	}
	for _, obj := range manual.Objects {
		for _, m := range obj.Methods {
			if err := r.resolveFunctionTypes(&m.Function, m); err != nil {
				return err
			}
		}
	}

	for _, obj := range manual.Objects {
		obj.InheritedMethods = r.inheritedMethods(obj)
	}
	return nil
}

// lookupFunction resolves "func" or "obj.method" inheritance sources.
func (r *resolver) lookupFunction(name string) (*Function, error) {
	if obj, method, ok := strings.Cut(name, "."); ok {
		o, found := r.objects[obj]
		if !found {
			return nil, fmt.Errorf("unknown object %q: %w", obj, appErr.ErrUnknownRef)
		}
		for _, m := range o.Methods {
			if m.Name == method {
				return &m.Function, nil
			}
		}
		return nil, fmt.Errorf("unknown method %q in object %q: %w", method, obj, appErr.ErrUnknownRef)
	}
	if fn, ok := r.funcs[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown function %q: %w", name, appErr.ErrUnknownRef)
}

func (r *resolver) inherit(fn *Function) error {
	if fn.PosargsInherit != "" {
		src, err := r.lookupFunction(fn.PosargsInherit)
		if err != nil {
			return fmt.Errorf("%s posargs_inherit: %w", fn.Name, err)
		}
		fn.Posargs = append([]*PosArg{}, src.Posargs...)
	}
	if fn.OptargsInherit != "" {
		src, err := r.lookupFunction(fn.OptargsInherit)
		if err != nil {
			return fmt.Errorf("%s optargs_inherit: %w", fn.Name, err)
		}
		fn.Optargs = append([]*PosArg{}, src.Optargs...)
	}
	if fn.VarargsInherit != "" {
		src, err := r.lookupFunction(fn.VarargsInherit)
		if err != nil {
			return fmt.Errorf("%s varargs_inherit: %w", fn.Name, err)
		}
		fn.Varargs = src.Varargs
	}
	for _, source := range fn.KwargsInherit {
		src, err := r.lookupFunction(source)
		if err != nil {
			return fmt.Errorf("%s kwargs_inherit: %w", fn.Name, err)
		}
		for name, kwarg := range src.Kwargs {
			if _, local := fn.Kwargs[name]; !local {
				fn.Kwargs[name] = kwarg
			}
		}
	}
	return nil
}

func (r *resolver) resolveFunctionTypes(fn *Function, owner Callable) error {
	resolveArg := func(t *Type) error {
		return r.resolveType(t, owner.DisplayName())
	}
	for _, a := range fn.Posargs {
		if err := resolveArg(&a.Type); err != nil {
			return err
		}
	}
	for _, a := range fn.Optargs {
		if err := resolveArg(&a.Type); err != nil {
			return err
		}
	}
	if fn.Varargs != nil {
		if err := resolveArg(&fn.Varargs.Type); err != nil {
			return err
		}
	}
	for _, kw := range fn.Kwargs {
		if err := resolveArg(&kw.Type); err != nil {
			return err
		}
	}
	if err := resolveArg(&fn.Returns); err != nil {
		return err
	}
	for _, info := range fn.Returns.Resolved {
		info.DataType.ReturnedBy = append(info.DataType.ReturnedBy, owner)
	}
	return nil
}

func (r *resolver) resolveType(t *Type, where string) error {
	if t.Resolved != nil {
		return nil
	}
	nodes := ParseTypeString(t.Raw)
	if len(nodes) == 0 {
		return fmt.Errorf("%s: empty type string", where)
	}
	resolved, err := r.resolveNodes(nodes, where)
	if err != nil {
		return err
	}
	t.Resolved = resolved
	return nil
}

func (r *resolver) resolveNodes(nodes []TypeNode, where string) ([]DataTypeInfo, error) {
	infos := make([]DataTypeInfo, 0, len(nodes))
	for _, node := range nodes {
		obj, ok := r.objects[node.Name]
		if !ok {
			return nil, fmt.Errorf("%s: unknown type %q: %w", where, node.Name, appErr.ErrUnknownRef)
		}
		info := DataTypeInfo{DataType: obj}
		if node.Container {
			inner, err := r.resolveNodes(node.Holds, where)
			if err != nil {
				return nil, err
			}
			info.Holds = &Type{Raw: AssembleType(node.Holds), Resolved: inner}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (r *resolver) inheritedMethods(obj *Object) []*Method {
	var methods []*Method
	for parent := obj.ExtendsObj; parent != nil; parent = parent.ExtendsObj {
		methods = append(methods, parent.Methods...)
	}
	return methods
}
