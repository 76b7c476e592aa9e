package config

import (
	"fmt"
	"strings"
)

// StepName identifies one of the fixed build and maintenance actions run on the host.
// The numeric order is the execution order.
type StepName int

const (
	ComposerInstall StepName = iota
	NpmInstall
	NpmBuild
	ArtisanMigrate
	ArtisanStorageLink
	ArtisanCacheClear
	ArtisanConfigCache
	ArtisanRouteCache
	ArtisanViewCache

	stepCount
)

type stepDef struct {
	name    string
	command string
}

var stepTable = [stepCount]stepDef{
	ComposerInstall:    {"composer_install", "composer install --no-interaction --prefer-dist --optimize-autoloader"},
	NpmInstall:         {"npm_install", "npm install"},
	NpmBuild:           {"npm_build", "npm run build"},
	ArtisanMigrate:     {"artisan_migrate", "php artisan migrate --force"},
	ArtisanStorageLink: {"artisan_storage_link", "php artisan storage:link"},
	ArtisanCacheClear:  {"artisan_cache_clear", "php artisan cache:clear"},
	ArtisanConfigCache: {"artisan_config_cache", "php artisan config:cache"},
	ArtisanRouteCache:  {"artisan_route_cache", "php artisan route:cache"},
	ArtisanViewCache:   {"artisan_view_cache", "php artisan view:cache"},
}

// AllSteps returns every step in execution order.
func AllSteps() []StepName {
	steps := make([]StepName, 0, stepCount)
	for s := range stepCount {
		steps = append(steps, s)
	}

	return steps
}

func (s StepName) valid() bool {
	return s >= 0 && s < stepCount
}

// String returns the configuration key of the step, e.g. "composer_install".
func (s StepName) String() string {
	if !s.valid() {
		return fmt.Sprintf("StepName(%d)", int(s))
	}

	return stepTable[s].name
}

// Command returns the shell command the step runs inside the deployment path.
func (s StepName) Command() string {
	if !s.valid() {
		return ""
	}

	return stepTable[s].command
}

// ParseStepName resolves a configuration key. Matching ignores case and surrounding space.
func ParseStepName(name string) (StepName, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for s := range stepCount {
		if stepTable[s].name == key {
			return s, nil
		}
	}

	return 0, fmt.Errorf("unknown step %q", name)
}

// StepSet is the set of enabled steps. The zero value is empty.
type StepSet uint16

// NewStepSet returns a set containing steps.
func NewStepSet(steps ...StepName) StepSet {
	var set StepSet
	for _, s := range steps {
		set = set.With(s)
	}

	return set
}

// DefaultSteps enables composer and every artisan step; the npm steps stay off.
func DefaultSteps() StepSet {
	return NewStepSet(
		ComposerInstall,
		ArtisanMigrate,
		ArtisanStorageLink,
		ArtisanCacheClear,
		ArtisanConfigCache,
		ArtisanRouteCache,
		ArtisanViewCache,
	)
}

// With returns a copy of the set with s enabled.
func (set StepSet) With(s StepName) StepSet {
	if !s.valid() {
		return set
	}

	return set | 1<<uint(s)
}

// Without returns a copy of the set with s disabled.
func (set StepSet) Without(s StepName) StepSet {
	if !s.valid() {
		return set
	}

	return set &^ (1 << uint(s))
}

// Set enables or disables s.
func (set StepSet) Set(s StepName, enabled bool) StepSet {
	if enabled {
		return set.With(s)
	}

	return set.Without(s)
}

// Has reports whether s is enabled.
func (set StepSet) Has(s StepName) bool {
	return s.valid() && set&(1<<uint(s)) != 0
}

// Len returns the number of enabled steps.
func (set StepSet) Len() int {
	n := 0
	for s := range stepCount {
		if set.Has(s) {
			n++
		}
	}

	return n
}

// Steps returns the enabled steps in execution order, regardless of the order they were enabled in.
func (set StepSet) Steps() []StepName {
	var steps []StepName
	for s := range stepCount {
		if set.Has(s) {
			steps = append(steps, s)
		}
	}

	return steps
}

// Commands returns the commands of the enabled steps in execution order.
func (set StepSet) Commands() []string {
	var commands []string
	for _, s := range set.Steps() {
		commands = append(commands, s.Command())
	}

	return commands
}
