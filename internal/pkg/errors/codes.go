package errors

import "net/http"

// Invalid input
var (
	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRadius = New(
		"INVALID_RADIUS",
		"Invalid radius value",
		http.StatusBadRequest,
	)

	ErrInvalidBBox = New(
		"INVALID_BBOX",
		"bbox must be minx,miny,maxx,maxy with minx<maxx and miny<maxy",
		http.StatusBadRequest,
	)

	ErrInvalidMode = New(
		"INVALID_MODE",
		"mode must be one of: bbox, radius, both, none",
		http.StatusBadRequest,
	)

	ErrUnknownDataset = New(
		"UNKNOWN_DATASET",
		"Unknown datasets requested",
		http.StatusBadRequest,
	)

	ErrMissingDateRange = New(
		"MISSING_DATE_RANGE",
		"start and end are required when weather is requested",
		http.StatusBadRequest,
	)

	ErrInvalidDateRange = New(
		"INVALID_DATE_RANGE",
		"start must not be after end",
		http.StatusBadRequest,
	)

	ErrInvalidLimit = New(
		"INVALID_LIMIT",
		"limit and offset must not be negative",
		http.StatusBadRequest,
	)

	ErrSpatialFilterRequired = New(
		"SPATIAL_FILTER_REQUIRED",
		"Provide either bbox=minx,miny,maxx,maxy or lat+lon",
		http.StatusBadRequest,
	)

	ErrBBoxRequired = New(
		"BBOX_REQUIRED",
		"Dataset requires bbox, radius queries are disabled",
		http.StatusBadRequest,
	)
)

// Not found
var (
	ErrLayerNotFound = New(
		"LAYER_NOT_FOUND",
		"Dataset not found",
		http.StatusNotFound,
	)
)

// Unavailable
var (
	ErrServiceUnavailable = New(
		"SERVICE_UNAVAILABLE",
		"Service temporarily unavailable",
		http.StatusServiceUnavailable,
	)

	ErrUpstreamUnavailable = New(
		"UPSTREAM_UNAVAILABLE",
		"External data source temporarily unavailable",
		http.StatusServiceUnavailable,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
