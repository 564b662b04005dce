package forestedge

import (
	"errors"

	"github.com/wgdzlh/forestedge/grid"
)

var (
	ErrResourceNotFound     = errors.New("resource not found")
	ErrIO                   = errors.New("raster io failed")
	ErrGdalDriverCreate     = errors.New("gdal driver create err")
	ErrVoidSrid             = errors.New("raster with void srid")
	ErrCrsMismatch          = errors.New("rasters have different crs")
	ErrInvalidSettings      = errors.New("invalid settings")
	ErrDownloadStatus       = errors.New("unexpected download status")
	ErrEmptyTif             = errors.New("empty tif")
	ErrUnsupportedRaster    = grid.ErrUnsupportedRaster
	ErrUnsupportedBandCount = grid.ErrUnsupportedBandCount
	ErrUnsupportedDataType  = grid.ErrUnsupportedDataType
	ErrNoOverlap            = grid.ErrNoOverlap
)
