package render

import (
	"encoding/binary"
	"io/fs"

	"github.com/cockroachdb/errors"
)

const spirvMagic = 0x07230203

// ShaderCode is the SPIR-V bytecode of the vertex and fragment stages.
type ShaderCode struct {
	Vertex   []uint32
	Fragment []uint32
}

// ShaderPaths returns the file names LoadShaders reads for name.
func ShaderPaths(name string) (vertex, fragment string) {
	return name + "_vert.spv", name + "_frag.spv"
}

// LoadShaders reads the precompiled stages of name from fsys.
func LoadShaders(fsys fs.FS, name string) (ShaderCode, error) {
	if fsys == nil {
		return ShaderCode{}, assetFailure(errors.New("no shader filesystem configured"), "load shader %q", name)
	}

	vertPath, fragPath := ShaderPaths(name)

	vert, err := readSPIRV(fsys, vertPath)
	if err != nil {
		return ShaderCode{}, err
	}

	frag, err := readSPIRV(fsys, fragPath)
	if err != nil {
		return ShaderCode{}, err
	}

	return ShaderCode{Vertex: vert, Fragment: frag}, nil
}

func readSPIRV(fsys fs.FS, path string) ([]uint32, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, assetFailure(err, "read shader %s", path)
	}

	code, err := BytesToBytecode(b)
	if err != nil {
		return nil, assetFailure(err, "decode shader %s", path)
	}

	return code, nil
}

// BytesToBytecode converts a little-endian SPIR-V blob into 32-bit words.
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("bytecode length %d is not a positive multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}

	if byteCode[0] != spirvMagic {
		return nil, errors.Newf("bad SPIR-V magic %#08x", byteCode[0])
	}

	return byteCode, nil
}
