package domain

import "fmt"

// Release holds all metadata related to a release.
type Release struct {
	Version      Version
	SourceCommit string
}

// TagName returns the tag the release is published under.
func (r Release) TagName() string {
	return r.Version.Tag()
}

// CommitMessage returns the message of the release commit.
func (r Release) CommitMessage() string {
	return fmt.Sprintf("Version %s, commit %s", r.Version, r.SourceCommit)
}

// Deployment describes a transition of a checkout from one version to another.
type Deployment struct {
	OldHead    string
	OldVersion *Version
	NewVersion Version
	Files      UpdatedFiles
}

// Initial reports whether the deploy created the checkout.
func (d Deployment) Initial() bool {
	return d.OldHead == ""
}
