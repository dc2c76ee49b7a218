package filter

import (
	"github.com/tphakala/simd/c128"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// Kernels at least this long are convolved in the frequency domain.
	// The band filter kernels run to a couple of thousand taps at 44.1 kHz.
	minKernelForFFT = 400

	defaultFFTBlockSize = 512

	// A real FFT of size N has N/2 + 1 unique coefficients.
	fftHermitianDivisor = 2
)

// FFTConvolver performs overlap-save FFT convolution with a fixed kernel.
//
// Input is consumed in blocks of fftSize samples overlapping by kernelLen-1;
// each block yields fftSize-kernelLen+1 valid outputs and the wrapped head of
// every block is discarded.
type FFTConvolver struct {
	fft       *fourier.FFT
	fftSize   int
	blockSize int

	kernelFFT []complex128
	kernelLen int
	scale     float64 // gonum does not normalize the inverse transform

	signalBlock []float64
	signalFFT   []complex128
	productFFT  []complex128
	ifftResult  []float64
}

// NewFFTConvolver transforms kernel once for reuse across Convolve calls.
// It returns nil for an empty kernel.
func NewFFTConvolver(kernel []float64) *FFTConvolver {
	kernelLen := len(kernel)
	if kernelLen == 0 {
		return nil
	}

	fftSize := defaultFFTBlockSize
	for fftSize < 2*kernelLen {
		fftSize *= 2
	}

	fft := fourier.NewFFT(fftSize)

	// Reversed so the circular product yields Σ x[n+k]·h[k], matching
	// f64.ConvolveValid.
	kernelPadded := make([]float64, fftSize)
	for i := range kernelLen {
		kernelPadded[i] = kernel[kernelLen-1-i]
	}

	fftLen := fftSize/fftHermitianDivisor + 1

	return &FFTConvolver{
		fft:         fft,
		fftSize:     fftSize,
		blockSize:   fftSize - kernelLen + 1,
		kernelFFT:   fft.Coefficients(nil, kernelPadded),
		kernelLen:   kernelLen,
		scale:       1.0 / float64(fftSize),
		signalBlock: make([]float64, fftSize),
		signalFFT:   make([]complex128, fftLen),
		productFFT:  make([]complex128, fftLen),
		ifftResult:  make([]float64, fftSize),
	}
}

// Convolve writes the valid convolution of signal with the kernel into dst.
// dst must hold at least len(signal)-kernelLen+1 samples.
func (c *FFTConvolver) Convolve(dst, signal []float64) {
	signalLen := len(signal)
	outputLen := signalLen - c.kernelLen + 1
	if outputLen <= 0 || len(dst) < outputLen {
		return
	}

	overlap := c.kernelLen - 1

	for outIdx := 0; outIdx < outputLen; {
		clear(c.signalBlock)

		copyLen := min(c.fftSize, signalLen-outIdx)
		copy(c.signalBlock, signal[outIdx:outIdx+copyLen])

		c.signalFFT = c.fft.Coefficients(c.signalFFT, c.signalBlock)
		c128.Mul(c.productFFT, c.signalFFT, c.kernelFFT)
		c.ifftResult = c.fft.Sequence(c.ifftResult, c.productFFT)
		f64.Scale(c.ifftResult, c.ifftResult, c.scale)

		valid := min(c.blockSize, outputLen-outIdx)
		copy(dst[outIdx:outIdx+valid], c.ifftResult[overlap:overlap+valid])

		outIdx += valid
	}
}
