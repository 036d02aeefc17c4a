//go:build test && !release

package core

const buildMode = ModeTest
