package mapgen

import "testing"

func solidRGB(width, height int, r, g, b byte) []byte {
	n := width * height
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		out[i] = r
		out[n+i] = g
		out[2*n+i] = b
	}
	return out
}

func TestConvertToYUV420AllZeroIsBlack(t *testing.T) {
	t.Parallel()
	rgb := solidRGB(4, 4, 0, 0, 0)
	yuv := ConvertToYUV420(rgb, 4, 4, ColorFastInteger)

	planeSize := 16
	for i := 0; i < planeSize; i++ {
		if yuv[i] != 0 {
			t.Fatalf("Y[%d] = %d, want 0", i, yuv[i])
		}
	}
	for i := planeSize; i < len(yuv); i++ {
		if yuv[i] != 128 {
			t.Fatalf("chroma[%d] = %d, want 128", i, yuv[i])
		}
	}
}

func TestConvertToYUV420MidGray(t *testing.T) {
	t.Parallel()
	rgb := solidRGB(4, 4, 128, 128, 128)
	yuv := ConvertToYUV420(rgb, 4, 4, ColorFastInteger)

	planeSize := 16
	for i := 0; i < planeSize; i++ {
		if yuv[i] != 128 {
			t.Fatalf("Y[%d] = %d, want 128", i, yuv[i])
		}
	}
	for i := planeSize; i < len(yuv); i++ {
		if yuv[i] != 128 {
			t.Fatalf("chroma[%d] = %d, want 128", i, yuv[i])
		}
	}
}

func TestConvertToYUV420ReferenceFilteredMidGrayWithinOneLSB(t *testing.T) {
	t.Parallel()
	rgb := solidRGB(8, 8, 128, 128, 128)
	yuv := ConvertToYUV420(rgb, 8, 8, ColorReferenceFiltered)

	planeSize := 64
	for i := planeSize; i < len(yuv); i++ {
		d := int(yuv[i]) - 128
		if d < -1 || d > 1 {
			t.Fatalf("chroma[%d] = %d, want within 1 of 128", i, yuv[i])
		}
	}
}

func TestConvertToYUV420OutputLength(t *testing.T) {
	t.Parallel()
	rgb := solidRGB(6, 4, 10, 20, 30)
	yuv := ConvertToYUV420(rgb, 6, 4, ColorFastInteger)
	want := 6*4 + (6*4)/2
	if len(yuv) != want {
		t.Fatalf("len(yuv) = %d, want %d", len(yuv), want)
	}
}
