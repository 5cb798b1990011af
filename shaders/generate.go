// Package shaders holds the GLSL sources of the renderer. The renderer reads
// the compiled <name>_vert.spv and <name>_frag.spv from IDKY_SHADER_DIR;
// run go generate with glslc from the Vulkan SDK on PATH to produce them.
package shaders

//go:generate glslc triangle.vert -o triangle_vert.spv
//go:generate glslc triangle.frag -o triangle_frag.spv
