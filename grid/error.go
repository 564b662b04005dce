package grid

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedRaster    = errors.New("unsupported raster")
	ErrUnsupportedBandCount = fmt.Errorf("%w: more than one band", ErrUnsupportedRaster)
	ErrUnsupportedDataType  = fmt.Errorf("%w: pixel type", ErrUnsupportedRaster)
	ErrRotatedGrid          = fmt.Errorf("%w: rotated geotransform", ErrUnsupportedRaster)
	ErrShapeMismatch        = errors.New("raster shape mismatch")
	ErrNoOverlap            = errors.New("rasters share no geographic extent")
	ErrInvalidScale         = errors.New("invalid aggregation scale")
	ErrInvalidExpression    = errors.New("invalid mask expression")
	ErrUnknownMode          = errors.New("unknown aggregation mode")
	ErrUnknownEncoding      = errors.New("unknown distance encoding")
	ErrUnknownKernel        = errors.New("unknown smoothing kernel")
)
