// Package deploy runs one deployment: a fixed, fail-fast sequence of stages over a
// prepared SSH session.
package deploy

import "fmt"

// Stage is one step of the deployment sequence, in execution order.
type Stage int

const (
	StageValidating Stage = iota
	StageTestingConnection
	StageRunningBeforeHooks
	StagePreparingSSH
	StageSyncingCode
	StageUploadingFiles
	StageRunningSteps
	StageFixingPermissions
	StageRunningAfterHooks
	StageSucceeded
)

var stageNames = [...]string{
	StageValidating:         "validating",
	StageTestingConnection:  "testing_connection",
	StageRunningBeforeHooks: "running_before_hooks",
	StagePreparingSSH:       "preparing_ssh",
	StageSyncingCode:        "syncing_code",
	StageUploadingFiles:     "uploading_files",
	StageRunningSteps:       "running_steps",
	StageFixingPermissions:  "fixing_permissions",
	StageRunningAfterHooks:  "running_after_hooks",
	StageSucceeded:          "succeeded",
}

var stageTitles = [...]string{
	StageValidating:         "Validating configuration",
	StageTestingConnection:  "Testing SSH connection",
	StageRunningBeforeHooks: "Running before hooks",
	StagePreparingSSH:       "Opening SSH connection",
	StageSyncingCode:        "Syncing code",
	StageUploadingFiles:     "Uploading files",
	StageRunningSteps:       "Running deployment steps",
	StageFixingPermissions:  "Fixing permissions",
	StageRunningAfterHooks:  "Running after hooks",
	StageSucceeded:          "Deployment succeeded",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}

	return stageNames[s]
}

// Title is the human-readable label used in progress output.
func (s Stage) Title() string {
	if s < 0 || int(s) >= len(stageTitles) {
		return s.String()
	}

	return stageTitles[s]
}
