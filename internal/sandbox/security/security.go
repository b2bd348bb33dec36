// Package security describes the isolation settings applied to a sandboxed
// run: an optional chroot root, a seccomp syscall profile, and whether the
// network namespace is isolated.
package security

// IsolationProfile names the filesystem root, syscall filter, and network
// posture a sandbox run is executed under. Profiles are resolved by name
// through a ProfileResolver and are language- and task-type-specific.
type IsolationProfile struct {
	RootFS         string
	SeccompProfile string
	DisableNetwork bool
}
