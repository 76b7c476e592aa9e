package deploy

import (
	"path"
	"strings"

	"github.com/ruffel/shipit"
	"github.com/ruffel/shipit/config"
)

// andThen joins commands so the first failure stops the rest.
func andThen(commands ...string) string {
	return strings.Join(commands, " && ")
}

// SyncCommand hard-resets the checkout at root to the remote-tracking ref of branch.
// Local changes on the host are discarded.
func SyncCommand(root, branch string) string {
	return andThen(
		"cd "+shipit.Quote(root),
		"git fetch --all",
		"git reset --hard "+shipit.Quote("origin/"+branch),
	)
}

// StepsCommand returns the single batch running every enabled step inside root, or ""
// when no step is enabled.
func StepsCommand(root string, steps config.StepSet) string {
	commands := steps.Commands()
	if len(commands) == 0 {
		return ""
	}

	return andThen(append([]string{"cd " + shipit.Quote(root)}, commands...)...)
}

// PermissionsCommand applies the file mode recursively, then the directory mode to every
// directory, then the storage and bootstrap cache modes.
func PermissionsCommand(root string, perms config.Permissions) string {
	quoted := shipit.Quote(root)

	return andThen(
		"chmod -R "+perms.Files+" "+quoted,
		"find "+quoted+" -type d -exec chmod "+perms.Directories+" {} +",
		"chmod -R "+perms.Storage+" "+shipit.Quote(path.Join(root, "storage")),
		"chmod -R "+perms.BootstrapCache+" "+shipit.Quote(path.Join(root, "bootstrap", "cache")),
	)
}
