package orchestrator

// File permission constants
const (
	// FilePermissionsReadWrite is the standard permission for created files
	FilePermissionsReadWrite = 0644
)

const (
	// releaseLockName is created inside the working tree's git directory.
	releaseLockName = "gitdeploy-release.lock"
	confirmQuestion = "Go on?"
	// initialCommitMessage is the message of the empty commit a new releases repository starts with.
	initialCommitMessage = "Dummy initial commit"
)
