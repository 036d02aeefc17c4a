package core

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/palantir/stacktrace"
)

func TestErrorCodeSurvivesPropagation(t *testing.T) {
	c := qt.New(t)

	root := stacktrace.NewErrorWithCode(ErrCodeAssetMismatch, "face %d is %dx%d", 3, 4, 4)
	wrapped := stacktrace.Propagate(root, "failed to build cube map")

	c.Assert(ErrorCode(wrapped), qt.Equals, ErrCodeAssetMismatch)
	c.Assert(wrapped, qt.ErrorMatches, "(?s)failed to build cube map.*face 3 is 4x4.*")
}

func TestIsRecoverable(t *testing.T) {
	c := qt.New(t)

	c.Assert(IsRecoverable(nil), qt.IsFalse)
	c.Assert(IsRecoverable(stacktrace.NewError("boom")), qt.IsFalse)
	c.Assert(IsRecoverable(stacktrace.NewErrorWithCode(ErrCodeSurfaceOutOfDate, "out of date")), qt.IsTrue)
	c.Assert(IsRecoverable(stacktrace.NewErrorWithCode(ErrCodeDeviceLost, "lost")), qt.IsFalse)
}
