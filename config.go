package forestedge

const (
	FILE_EXT_TIF    = ".tif"
	FILE_EXT_PART   = ".part"
	FILE_EXT_SHP    = ".shp"
	SHP_DRIVER_NAME = "ESRI Shapefile"
	SHAPE_ENCODING  = "UTF-8"
	ENCODING_OPTION = "ENCODING=" + SHAPE_ENCODING
	LZW_OPTION      = "COMPRESS=LZW"
	TILED_OPTION    = "TILED=YES"
	BIGTIFF_OPTION  = "BIGTIFF=IF_SAFER"
	UNIVERSAL_SRID  = 4326
	DEFAULT_WORKERS = 1

	// 输出元数据项
	MD_DISTANCE_ENCODING = "DISTANCE_ENCODING"
	MD_AGGREGATION_MODE  = "AGGREGATION_MODE"
	MD_NODATA            = "NODATA"
	MD_NODATA_NONE       = "none"
	MD_SOURCE            = "SOURCE"
	MD_SMOOTH_KERNEL     = "SMOOTH_KERNEL"
	MD_LAND_REFERENCE    = "LAND_REFERENCE"

	// 产品文件名后缀
	SUFFIX_BINARY       = "_binary"
	SUFFIX_EDGE         = "_edge"
	SUFFIX_DISTANCE     = "_distance"
	SUFFIX_DENSITY      = "_density"
	SUFFIX_DISTANCE_AGG = "_distance_agg"
	SUFFIX_CLIPPED      = "_clipped"
	SUFFIX_NODATA_ZERO  = "_nodata_zero"
	SUFFIX_SMOOTHED     = "_smoothed"
	SUFFIX_PROCESSED    = "_processed"

	// 陆地掩膜参考切片
	LAND_REF_SUFFIX = "landpercentage.tif"
	LAND_VALUE      = 254
	LAND_NODATA     = -9999

	// Hansen GFC 切片
	GFC_BASE_URL = "https://storage.googleapis.com/earthenginepartners-hansen/GFC-2023-v1.11"
	GFC_PREFIX   = "Hansen_GFC-2023-v1.11_lossyear"

	PREVIEW_MAX_SIZE = 1024

	// 切片索引shp字段
	FIELD_TILE     = "tile"
	FIELD_LOCATION = "location"

	TMP_VRT = "mosaic_%s.vrt"
)
