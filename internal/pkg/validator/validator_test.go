package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/usecase/dto"
)

func TestValidate(t *testing.T) {
	lat, lon := 42.6977, 23.3219
	badLat := 91.0

	valid := func() dto.EnrichPointRequest {
		req := dto.NewEnrichPointRequest(300, 2000)
		req.Lat, req.Lon = &lat, &lon
		return req
	}

	t.Run("valid request", func(t *testing.T) {
		assert.NoError(t, Validate(valid()))
	})

	t.Run("mode is case insensitive", func(t *testing.T) {
		req := valid()
		req.Mode = "BBOX"
		assert.NoError(t, Validate(req))
	})

	tests := []struct {
		name   string
		mutate func(r *dto.EnrichPointRequest)
		want   *errors.AppError
	}{
		{"missing lat", func(r *dto.EnrichPointRequest) { r.Lat = nil }, errors.ErrInvalidCoordinates},
		{"lat out of range", func(r *dto.EnrichPointRequest) { r.Lat = &badLat }, errors.ErrInvalidCoordinates},
		{"zero radius", func(r *dto.EnrichPointRequest) { r.RadiusM = 0 }, errors.ErrInvalidRadius},
		{"unknown mode", func(r *dto.EnrichPointRequest) { r.Mode = "circle" }, errors.ErrInvalidMode},
		{"unknown dataset", func(r *dto.EnrichPointRequest) { r.Datasets = "pois,rivers" }, errors.ErrUnknownDataset},
		{"uncapped layer", func(r *dto.EnrichPointRequest) { r.Datasets = "neighbourhoods" }, errors.ErrUnknownDataset},
		{"malformed date", func(r *dto.EnrichPointRequest) { r.Start = "01/02/2024" }, errors.ErrInvalidDateRange},
		{"zero limit", func(r *dto.EnrichPointRequest) { r.Limit = 0 }, errors.ErrInvalidLimit},
		{"negative simplify", func(r *dto.EnrichPointRequest) { r.SimplifyM = -1 }, errors.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)

			err := Validate(req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown datasets are listed", func(t *testing.T) {
		req := valid()
		req.Datasets = "rivers,pois,lakes"

		appErr, ok := errors.As(Validate(req))
		require.True(t, ok)
		assert.Equal(t, []string{"rivers", "lakes"}, appErr.Details["unknown"])
	})

	t.Run("details use query names", func(t *testing.T) {
		req := valid()
		req.SimplifyM = -1

		appErr, ok := errors.As(Validate(req))
		require.True(t, ok)
		assert.Contains(t, appErr.Details, "simplify_m")
	})

	t.Run("missing weather dates", func(t *testing.T) {
		err := Validate(dto.WeatherDailyRequest{Lat: &lat, Lon: &lon, End: "2024-01-02"})
		assert.ErrorIs(t, err, errors.ErrMissingDateRange)
	})
}
