package install

import (
	"strings"
	"testing"
)

func TestSystemdUnit_ContainsExpectedDirectives(t *testing.T) {
	unit := systemdUnit()

	for _, want := range []string{
		"Description=Lox Line-in Bridge",
		"ExecStart=/usr/local/bin/lox-linein-bridge run",
		"Restart=always",
		"WantedBy=multi-user.target",
	} {
		if !strings.Contains(unit, want) {
			t.Errorf("systemdUnit() missing %q:\n%s", want, unit)
		}
	}
}
