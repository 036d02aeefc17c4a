//go:build !release && !test

package core

const buildMode = ModeDebug
