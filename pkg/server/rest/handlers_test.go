package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/router"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	route      datastructure.Route
	code       router.Code
	edges      []datastructure.EdgeCandidate
	dists      []float64
	edgesErr   error
	regions    []string
	regionsErr error

	gotRegion string
	gotStart  datastructure.Coordinate
	gotFinish datastructure.Coordinate
}

func (s *stubService) ShortestPath(ctx context.Context, region string,
	start, finish datastructure.Coordinate) (datastructure.Route, router.Code) {
	s.gotRegion = region
	s.gotStart = start
	s.gotFinish = finish
	return s.route, s.code
}

func (s *stubService) NearestRoadSegments(ctx context.Context, lat, lon float64) (
	[]datastructure.EdgeCandidate, []float64, error) {
	return s.edges, s.dists, s.edgesErr
}

func (s *stubService) RegionList(ctx context.Context) ([]string, error) {
	return s.regions, s.regionsErr
}

func newTestServer(svc NavigationService) *httptest.Server {
	r := chi.NewRouter()
	NavigationRouter(r, svc, nil)
	return httptest.NewServer(r)
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func TestShortestPathOK(t *testing.T) {
	svc := &stubService{
		route: datastructure.Route{
			Polyline: []datastructure.Coordinate{
				datastructure.NewCoordinate(-6.18, 106.82),
				datastructure.NewCoordinate(-6.181, 106.821),
			},
			Times: []datastructure.TimeIndex{{Index: 0, Time: 0}, {Index: 1, Time: 12.5}},
			Instructions: []datastructure.Instruction{
				{Turn: datastructure.TurnNone, Description: "depart",
					Point: datastructure.NewCoordinate(-6.18, 106.82)},
			},
			Eta:  12.5,
			Dist: 150.0,
		},
		code: router.NoError,
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/navigations/shortest-path", map[string]interface{}{
		"region": "jakarta",
		"start":  map[string]float64{"lat": -6.18, "lon": 106.82},
		"finish": map[string]float64{"lat": -6.181, "lon": 106.821},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out ShortestPathResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 12.5, out.Eta)
	assert.Equal(t, 150.0, out.Dist)
	assert.Len(t, out.Times, 2)
	assert.Len(t, out.Instructions, 1)
	assert.Equal(t, "depart", out.Instructions[0].Turn)
	assert.NotEmpty(t, out.Path)

	assert.Equal(t, "jakarta", svc.gotRegion)
	assert.Equal(t, -6.18, svc.gotStart.Lat)
	assert.Equal(t, 106.821, svc.gotFinish.Lon)
}

func TestShortestPathCodeMapping(t *testing.T) {
	cases := []struct {
		code router.Code
		want int
	}{
		{router.NoPath, http.StatusNotFound},
		{router.RouteFileNotExist, http.StatusNotFound},
		{router.StartPointNotFound, http.StatusBadRequest},
		{router.EndPointNotFound, http.StatusBadRequest},
		{router.Cancelled, http.StatusRequestTimeout},
		{router.InternalError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.code.String(), func(t *testing.T) {
			srv := newTestServer(&stubService{code: tc.code})
			defer srv.Close()

			resp := postJSON(t, srv.URL+"/api/navigations/shortest-path", map[string]interface{}{
				"region": "jakarta",
				"start":  map[string]float64{"lat": -6.18, "lon": 106.82},
				"finish": map[string]float64{"lat": -6.181, "lon": 106.821},
			})
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestShortestPathMissingRegion(t *testing.T) {
	srv := newTestServer(&stubService{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/navigations/shortest-path", map[string]interface{}{
		"start":  map[string]float64{"lat": -6.18, "lon": 106.82},
		"finish": map[string]float64{"lat": -6.181, "lon": 106.821},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShortestPathValidation(t *testing.T) {
	srv := newTestServer(&stubService{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/navigations/shortest-path", map[string]interface{}{
		"region": "jakarta",
		"start":  map[string]float64{"lat": 95.0, "lon": 106.82},
		"finish": map[string]float64{"lat": -6.181, "lon": 106.821},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out, "validation")
}

func TestNearestRoadSegments(t *testing.T) {
	svc := &stubService{
		edges: []datastructure.EdgeCandidate{
			{
				Region:   "jakarta",
				Point:    datastructure.NewRoadPoint(7, 2),
				SegStart: datastructure.NewCoordinate(-6.18, 106.82),
				SegEnd:   datastructure.NewCoordinate(-6.181, 106.821),
			},
		},
		dists: []float64{4.2},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/navigations/nearest-road-segment", map[string]float64{
		"lat": -6.1805, "lon": 106.8205,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out RoadSnappingResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Edges, 1)
	assert.Equal(t, uint32(7), out.Edges[0].FeatureID)
	assert.Equal(t, 4.2, out.Edges[0].Distance)
}

func TestNearestRoadSegmentsError(t *testing.T) {
	srv := newTestServer(&stubService{edgesErr: errors.New("db closed")})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/navigations/nearest-road-segment", map[string]float64{
		"lat": -6.1805, "lon": 106.8205,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRegions(t *testing.T) {
	srv := newTestServer(&stubService{regions: []string{"bandung", "jakarta"}})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/navigations/regions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out RegionListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []string{"bandung", "jakarta"}, out.Regions)
}
