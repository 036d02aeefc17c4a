//go:build release

package core

const buildMode = ModeRelease
