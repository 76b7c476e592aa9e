// Package transporttest provides the behavioural contract every shipit transport must
// satisfy: local hooks, the native SSH client and the OpenSSH wrapper all run it.
// Every transport is expected to run POSIX shell commands.
package transporttest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ruffel/shipit"
)

// Standard categories for grouping tests.
const (
	CategoryCore        = "core"
	CategoryEnvironment = "environment"
	CategoryFilesystem  = "filesystem"
	CategoryErrors      = "errors"
)

// T is the minimal interface required for testify/assert and require.
type T interface {
	Errorf(format string, args ...any)
	FailNow()
	Context() context.Context
	TempDir() string
	Name() string
}

// TestCase defines a single behavioral contract requirement.
type TestCase struct {
	Category    string
	Name        string
	Description string
	Run         func(t T, env shipit.Environment)
}

// ID returns the stable, globally unique contract identifier.
func (tc TestCase) ID() string {
	return fmt.Sprintf("%s/%s", tc.Category, tc.Name)
}

// Factory returns a fresh environment for one contract. Some contracts close it.
type Factory func(t *testing.T) shipit.Environment

// AllContracts returns all test cases for the contract test suite.
func AllContracts() []TestCase {
	var contracts []TestCase

	contracts = append(contracts, coreContracts()...)
	contracts = append(contracts, environmentContracts()...)
	contracts = append(contracts, fileContracts()...)
	contracts = append(contracts, errorContracts()...)

	return contracts
}

// Verify is the standard Go test entry point for provider authors.
func Verify(t *testing.T, newEnv Factory) {
	t.Helper()

	for _, tc := range AllContracts() {
		t.Run(tc.ID(), func(t *testing.T) {
			env := newEnv(t)
			t.Cleanup(func() { _ = env.Close() })

			tc.Run(t, env)
		})
	}
}
