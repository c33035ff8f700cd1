// env.go verifies the external CLI tools uxctl shells out to are present.
package checkup

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tools checks that every listed binary is resolvable on PATH. kubectl and
// helm are not listed: uxctl talks to the cluster and to Helm through their
// Go client libraries, so only minikube and docker are true CLI
// prerequisites.
type Tools struct {
	Binaries []string
}

func (t Tools) Name() string { return "Required tools" }

func (t Tools) Run(_ context.Context) Result {
	var missing []string
	for _, bin := range t.Binaries {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return Fail("missing required tools: %s", strings.Join(missing, ", ")).
			WithDetails(fmt.Sprintf("install the missing tools and re-run (checked: %s)", strings.Join(t.Binaries, ", ")))
	}
	return Pass("%d tools present on PATH", len(t.Binaries))
}
