package engine

import (
	"zroj/internal/sandbox/security"
	"zroj/internal/sandbox/spec"
)

type initRequest struct {
	RunSpec       spec.RunSpec
	Isolation     security.IsolationProfile
	EnableSeccomp bool
	EnableNs      bool
}
