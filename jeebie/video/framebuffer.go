package video

type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor         = 0xFF989898
	DarkGreyColor          = 0xFF4C4C4C
	BlackColor             = 0xFF000000
)

// FramebufferWidth and FramebufferHeight are the fixed DMG LCD dimensions.
const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// ByteToColor maps a 2-bit Game Boy color index, as produced by a palette
// lookup, to the shade it represents.
func ByteToColor(color byte) GBColor {
	switch color & 0x3 {
	case 0:
		return WhiteColor
	case 1:
		return LightGreyColor
	case 2:
		return DarkGreyColor
	default:
		return BlackColor
	}
}

type FrameBuffer struct {
	width  uint
	height uint
	buffer []uint32
}

// NewFrameBuffer creates a frame buffer sized to the DMG LCD resolution.
func NewFrameBuffer() *FrameBuffer {
	width, height := uint(FramebufferWidth), uint(FramebufferHeight)
	colorSlice := make([]uint32, width*height, width*height)

	return &FrameBuffer{
		width:  width,
		height: height,
		buffer: colorSlice,
	}
}

func (fb FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y uint, color GBColor) {
	fb.buffer[y*fb.width+x] = uint32(color)
}

func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}

// Clear blanks every pixel to white, matching the blank screen a real DMG
// shows while the LCD is disabled.
func (fb *FrameBuffer) Clear() {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(WhiteColor)
	}
}
