package commands

import (
	"strings"

	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const (
	commandModuleRoot    = "docsite.commands"
	defaultCommandModule = "site"
)

// CommandLogger scopes provider to docsite.commands.<module>, so build and
// link check output can be filtered per command group. Every entry carries
// component=command and command_module=<module>.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = strings.TrimSpace(module)
	if module == "" {
		module = defaultCommandModule
	}
	return logging.WithFields(
		logging.ModuleLogger(provider, commandModuleRoot+"."+module),
		map[string]any{"component": "command", "command_module": module},
	)
}
