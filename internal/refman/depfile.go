package refman

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// WriteDepfile emits a Make style dependency file so build systems can
// re-run generation when any input YAML changes.
func WriteDepfile(path, target string, inputs []string) error {
	deps := append([]string(nil), inputs...)
	sort.Strings(deps)
	for i, d := range deps {
		deps[i] = strings.ReplaceAll(d, " ", "\\ ")
	}
	content := fmt.Sprintf("%s: \\\n    %s\n", target, strings.Join(deps, " \\\n    "))
	return os.WriteFile(path, []byte(content), 0o644)
}
