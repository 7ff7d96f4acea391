package pixel

// ConvertRGB converts the first pixels RGB values from src into dst, channel by channel.
func ConvertRGB[Out, In Sample](dst []Out, src []In, pixels int) {
	convertSamples(dst[:pixels*3], src[:pixels*3])
}

// ConvertRGBA converts the first pixels RGBA values from src into dst, channel by channel.
func ConvertRGBA[Out, In Sample](dst []Out, src []In, pixels int) {
	convertSamples(dst[:pixels*4], src[:pixels*4])
}

// RGBToRGBA converts RGB pixels to RGBA. Alpha is fully opaque in the
// output type: the type maximum for integers, 1.0 for floats.
func RGBToRGBA[Out, In Sample](dst []Out, src []In, pixels int) {
	opaque := FromFloat[Out](1)
	dst = dst[:pixels*4]
	src = src[:pixels*3]
	for i, j := 0, 0; i < len(dst); i, j = i+4, j+3 {
		dst[i] = ConvertChannel[Out](src[j])
		dst[i+1] = ConvertChannel[Out](src[j+1])
		dst[i+2] = ConvertChannel[Out](src[j+2])
		dst[i+3] = opaque
	}
}

// RGBAToRGB converts RGBA pixels to RGB by dropping alpha. Colour channels
// are not premultiplied.
func RGBAToRGB[Out, In Sample](dst []Out, src []In, pixels int) {
	dst = dst[:pixels*3]
	src = src[:pixels*4]
	for i, j := 0, 0; i < len(dst); i, j = i+3, j+4 {
		dst[i] = ConvertChannel[Out](src[j])
		dst[i+1] = ConvertChannel[Out](src[j+1])
		dst[i+2] = ConvertChannel[Out](src[j+2])
	}
}

func convertSamples[Out, In Sample](dst []Out, src []In) {
	for i, v := range src {
		dst[i] = ConvertChannel[Out](v)
	}
}
