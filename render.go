package meshrender

import (
	"errors"
	"fmt"

	"golang.org/x/image/math/f32"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrBatchMismatch is returned when the vertex, attribute, and camera
	// batches disagree on the batch size.
	ErrBatchMismatch = errors.New("meshrender: vertex, attribute, and camera batch sizes must match")

	// ErrVertexCountMismatch is returned when batch images disagree on the
	// vertex count; the triangle list is shared, so the topology must be
	// identical across the batch.
	ErrVertexCountMismatch = errors.New("meshrender: all batch images must share the same vertex count")

	// ErrAttributeShape is returned when an attribute buffer is not
	// vertex_count * len(background) long.
	ErrAttributeShape = errors.New("meshrender: attribute buffer must hold one fixed-width vector per vertex")

	// ErrBackgroundShape is returned when the background value is empty.
	ErrBackgroundShape = errors.New("meshrender: background value must have at least one channel")
)

// Render rasterizes a batch of meshes given in world space and computes
// per-pixel interpolated vertex attributes. Each mesh is projected to clip
// space with its model-view-projection matrix and handed to
// RenderClipSpace.
//
// worldVertices is a batch of xyz vertex buffers, attributes a batch of
// flattened per-vertex attribute vectors (len(background) values per
// vertex), triangles the shared topology, and background the attribute
// vector for pixels no triangle covers.
func Render(worldVertices [][]f32.Vec3, attributes [][]float32, triangles []Triangle,
	cameraMatrices []f32.Mat4, width, height int, background []float32,
	opts ...Option) ([]*AttributeImage, error) {

	if len(cameraMatrices) != len(worldVertices) {
		return nil, fmt.Errorf("%w: %d vertex buffers, %d camera matrices",
			ErrBatchMismatch, len(worldVertices), len(cameraMatrices))
	}

	clip := make([][]f32.Vec4, len(worldVertices))
	for b := range worldVertices {
		clip[b] = TransformHomogeneous(cameraMatrices[b], worldVertices[b])
	}
	return RenderClipSpace(clip, attributes, triangles, width, height, background, opts...)
}

// RenderClipSpace rasterizes a batch of meshes already expressed in
// clip-space (x, y, z, w) coordinates and computes per-pixel interpolated
// vertex attributes blended over the background value.
//
// Per image, independently: the forward kernel produces the triangle-id
// and barycentric buffers; each pixel gathers its winning triangle's three
// attribute vectors through the shared triangle list (offset by the image's
// position into the flattened attribute table) and combines them with the
// barycentric weights. The coverage alpha is clamp(2*sum(weights), 0, 1),
// which saturates to 1 on covered pixels and is exactly 0 elsewhere; the
// output is alpha*attributes + (1-alpha)*background.
//
// All validation happens before any kernel runs. Degenerate geometry is not
// an error: fully clipped meshes simply produce background-valued images.
func RenderClipSpace(clipVertices [][]f32.Vec4, attributes [][]float32, triangles []Triangle,
	width, height int, background []float32, opts ...Option) ([]*AttributeImage, error) {

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(background) == 0 {
		return nil, ErrBackgroundShape
	}
	if len(attributes) != len(clipVertices) {
		return nil, fmt.Errorf("%w: %d vertex buffers, %d attribute buffers",
			ErrBatchMismatch, len(clipVertices), len(attributes))
	}

	batch := len(clipVertices)
	channels := len(background)
	vertexCount := 0
	if batch > 0 {
		vertexCount = len(clipVertices[0])
	}
	for b := range clipVertices {
		if len(clipVertices[b]) != vertexCount {
			return nil, fmt.Errorf("%w: image 0 has %d vertices, image %d has %d",
				ErrVertexCountMismatch, vertexCount, b, len(clipVertices[b]))
		}
		if len(attributes[b]) != vertexCount*channels {
			return nil, fmt.Errorf("%w: image %d has %d values, want %d*%d",
				ErrAttributeShape, b, len(attributes[b]), vertexCount, channels)
		}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// Flatten the attribute batch into one [batch*vertexCount, channels]
	// table; pixel gathers below index it with the winning vertex ids
	// offset by the image's position in the batch.
	flat := make([]float32, 0, batch*vertexCount*channels)
	for b := range attributes {
		flat = append(flat, attributes[b]...)
	}

	images := make([]*AttributeImage, batch)

	// Images are independent: fan out one task per batch element, each
	// writing only its own output image. The worker pool inside Rasterize
	// handles the per-pixel parallelism.
	var eg errgroup.Group
	eg.SetLimit(cfg.workers)
	for b := 0; b < batch; b++ {
		b := b
		eg.Go(func() error {
			rast, err := Rasterize(clipVertices[b], triangles, width, height, opts...)
			if err != nil {
				return err
			}
			images[b] = compositeImage(&rast.Buffers, triangles, flat, b*vertexCount, channels, background)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	Logger().Debug("meshrender: render batch",
		"batch", batch, "width", width, "height", height, "channels", channels)

	return images, nil
}

// compositeImage turns one image's rasterization buffers into an attribute
// image: gather the winning triangle's vertex attributes, weight them with
// the barycentric triple, and blend with the background by the coverage
// alpha.
func compositeImage(buf *Buffers, triangles []Triangle, flatAttrs []float32,
	vertexOffset, channels int, background []float32) *AttributeImage {

	im := NewAttributeImage(buf.Width, buf.Height, channels)

	for idx := 0; idx < buf.Width*buf.Height; idx++ {
		out := im.pix[idx*channels : (idx+1)*channels]
		bi := idx * 3
		w0 := buf.Barycentrics[bi]
		w1 := buf.Barycentrics[bi+1]
		w2 := buf.Barycentrics[bi+2]

		// Uncovered pixels carry the aliased id 0; their all-zero weights
		// keep the gather harmless, and an empty triangle list leaves
		// nothing to gather at all.
		if len(triangles) == 0 || (w0 == 0 && w1 == 0 && w2 == 0) {
			copy(out, background)
			continue
		}

		tri := triangles[buf.TriangleIDs[idx]]
		a0 := flatAttrs[(vertexOffset+int(tri[0]))*channels:]
		a1 := flatAttrs[(vertexOffset+int(tri[1]))*channels:]
		a2 := flatAttrs[(vertexOffset+int(tri[2]))*channels:]

		alpha := clampf(2*(w0+w1+w2), 0, 1)
		for c := 0; c < channels; c++ {
			interp := w0*a0[c] + w1*a1[c] + w2*a2[c]
			out[c] = alpha*interp + (1-alpha)*background[c]
		}
	}
	return im
}
