//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderSources = []string{"shader.vert", "shader.frag", "skybox.vert", "skybox.frag"}

// Compiles the GLSL sources in assets/shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the demo binary into bin/.
func (Build) Demo() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", filepath.Join("bin", "quartz"), "."), withStream()); err != nil {
		return err
	}
	return nil
}

func buildShaders() error {
	if err := requireTool("glslc", "install the Vulkan SDK or shaderc"); err != nil {
		return err
	}
	for _, src := range shaderSources {
		if _, err := executeCmd("glslc", withArgs(src, "-o", src+".spv"), withDir(filepath.Join("assets", "shaders")), withStream()); err != nil {
			return err
		}
	}
	return nil
}
