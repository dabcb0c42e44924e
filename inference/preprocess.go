package inference

import (
	"fmt"
	"image"

	"github.com/nvr-ai/hardhat/images"
)

// PrepareInput letterboxes img into a size x size square and writes it to dst
// as planar RGB floats in [0, 1], the layout of a [1, 3, size, size] tensor.
//
// Arguments:
//   - img: The image to prepare.
//   - size: The model input side in pixels.
//   - dst: The destination tensor data to populate.
//
// Returns:
//   - images.ScaleInfo: The mapping needed to project boxes back onto img.
//   - error: An error if dst is too small.
func PrepareInput(img image.Image, size int, dst []float32) (images.ScaleInfo, error) {
	channelSize := size * size
	if len(dst) < channelSize*3 {
		return images.ScaleInfo{}, fmt.Errorf("destination tensor only holds %d floats, needs "+
			"%d (make sure it's the right shape!)", len(dst), channelSize*3)
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	boxed, scale := images.Letterbox(img, size)

	i := 0
	for y := 0; y < size; y++ {
		row := boxed.Pix[y*boxed.Stride : y*boxed.Stride+size*4]
		for x := 0; x < size; x++ {
			red[i] = float32(row[x*4]) / 255.0
			green[i] = float32(row[x*4+1]) / 255.0
			blue[i] = float32(row[x*4+2]) / 255.0
			i++
		}
	}
	return scale, nil
}
