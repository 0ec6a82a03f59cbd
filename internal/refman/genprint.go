package refman

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// GeneratorPrint dumps a manual summary to the log. Useful to sanity
// check the YAML documents without generating any output files.
type GeneratorPrint struct {
	manual *ReferenceManual
}

func NewGeneratorPrint(manual *ReferenceManual) *GeneratorPrint {
	return &GeneratorPrint{manual: manual}
}

func (g *GeneratorPrint) logFunction(ctx context.Context, fn *Function) {
	logutil.GetLogger(ctx).Info("function",
		zap.String("name", fn.DisplayName()),
		zap.String("brief", Brief(fn.Description)),
		zap.String("returns", fn.Returns.Raw),
		zap.Int("posargs", len(fn.Posargs)),
		zap.Int("optargs", len(fn.Optargs)),
		zap.Int("kwargs", len(fn.Kwargs)),
		zap.Bool("varargs", fn.Varargs != nil))
}

func (g *GeneratorPrint) logObject(ctx context.Context, obj *Object) {
	logger := logutil.GetLogger(ctx)
	logger.Info("object",
		zap.String("name", obj.Name),
		zap.String("type", obj.ObjType.String()),
		zap.String("brief", Brief(obj.Description)),
		zap.Int("methods", len(obj.Methods)),
		zap.Int("returned_by", len(obj.ReturnedBy)))
	for _, m := range SortedAndFiltered(obj.Methods) {
		g.logFunction(ctx, &m.Function)
	}
}

func (g *GeneratorPrint) Generate(ctx context.Context) error {
	for _, fn := range g.manual.SortedFunctions() {
		g.logFunction(ctx, fn)
	}
	for _, obj := range g.manual.SortedObjects() {
		g.logObject(ctx, obj)
	}
	logutil.GetLogger(ctx).Info("manual summary",
		zap.Int("functions", len(g.manual.SortedFunctions())),
		zap.Int("objects", len(g.manual.SortedObjects())))
	return nil
}
