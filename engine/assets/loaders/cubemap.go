package loaders

import (
	"image"

	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
)

// CubeFace order is the layer order of a cube image.
type CubeFace int

const (
	CubeFacePosX CubeFace = iota
	CubeFaceNegX
	CubeFacePosY
	CubeFaceNegY
	CubeFacePosZ
	CubeFaceNegZ
	CubeFaceCount
)

func (f CubeFace) String() string {
	switch f {
	case CubeFacePosX:
		return "+x"
	case CubeFaceNegX:
		return "-x"
	case CubeFacePosY:
		return "+y"
	case CubeFaceNegY:
		return "-y"
	case CubeFacePosZ:
		return "+z"
	case CubeFaceNegZ:
		return "-z"
	default:
		return "unknown"
	}
}

// CubeFaces holds six decoded faces in layer order.
type CubeFaces struct {
	Faces [CubeFaceCount]*image.NRGBA
}

// CubeMapLoader loads six face images. params must be a [6]string of paths
// in {posX, negX, posY, negY, posZ, negZ} order.
type CubeMapLoader struct {
	images ImageLoader
}

func (cl *CubeMapLoader) Load(path string, params interface{}) (*Resource, error) {
	paths, ok := params.([CubeFaceCount]string)
	if !ok {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "cube map '%s' needs six face paths, got %T", path, params)
	}
	faces := &CubeFaces{}
	var size uint64
	for i, p := range paths {
		res, err := cl.images.Load(p, nil)
		if err != nil {
			return nil, stacktrace.Propagate(err, "could not load cube face %d", i)
		}
		faces.Faces[i] = res.Data.(*image.NRGBA)
		size += res.DataSize
	}
	if _, _, err := ConcatCubeFaces(faces.Faces); err != nil {
		return nil, err
	}
	return &Resource{
		Name:     path,
		FullPath: path,
		Type:     ResourceTypeCubeMap,
		DataSize: size,
		Data:     faces,
	}, nil
}

// ConcatCubeFaces validates that all faces are square with identical size and
// returns their pixels concatenated in layer order, with the face edge length.
func ConcatCubeFaces(faces [CubeFaceCount]*image.NRGBA) ([]byte, uint32, error) {
	if faces[0] == nil {
		return nil, 0, stacktrace.NewErrorWithCode(core.ErrCodeAssetMismatch, "cube face 0 is missing")
	}
	size := faces[0].Bounds().Size()
	if size.X != size.Y || size.X == 0 {
		return nil, 0, stacktrace.NewErrorWithCode(core.ErrCodeAssetMismatch, "cube face 0 is not square: %dx%d", size.X, size.Y)
	}
	edge := size.X
	rowBytes := edge * 4

	out := make([]byte, 0, rowBytes*edge*int(CubeFaceCount))
	for i, face := range faces {
		if face == nil {
			return nil, 0, stacktrace.NewErrorWithCode(core.ErrCodeAssetMismatch, "cube face %d is missing", i)
		}
		bounds := face.Bounds()
		if s := bounds.Size(); s != size {
			return nil, 0, stacktrace.NewErrorWithCode(core.ErrCodeAssetMismatch,
				"cube face %d is %dx%d, face 0 is %dx%d", i, s.X, s.Y, size.X, size.Y)
		}
		if end := face.PixOffset(bounds.Min.X, bounds.Max.Y-1) + rowBytes; end > len(face.Pix) {
			return nil, 0, stacktrace.NewErrorWithCode(core.ErrCodeAssetMismatch,
				"cube face %d has %d bytes, %d are needed", i, len(face.Pix), end)
		}
		// Rows are copied one by one so sub-images and padded strides pack tightly.
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			start := face.PixOffset(bounds.Min.X, y)
			out = append(out, face.Pix[start:start+rowBytes]...)
		}
	}
	return out, uint32(size.X), nil
}
