package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/router"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type NavigationService interface {
	ShortestPath(ctx context.Context, region string, start, finish datastructure.Coordinate) (datastructure.Route, router.Code)
	NearestRoadSegments(ctx context.Context, lat, lon float64) ([]datastructure.EdgeCandidate, []float64, error)
	RegionList(ctx context.Context) ([]string, error)
}

type NavigationHandler struct {
	svc NavigationService
	m   *metrics
}

func NavigationRouter(r *chi.Mux, svc NavigationService, m *metrics) {
	handler := &NavigationHandler{svc, m}

	r.Group(func(r chi.Router) {
		r.Route("/api/navigations", func(r chi.Router) {
			r.Post("/shortest-path", handler.ShortestPath)
			r.Post("/nearest-road-segment", handler.NearestRoadSegments)
			r.Get("/regions", handler.Regions)
		})
	})
}

type Coord struct {
	Lat float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lon float64 `json:"lon" validate:"required,lt=180,gt=-180"`
}

type ShortestPathRequest struct {
	Region string `json:"region" validate:"required"`
	Start  Coord  `json:"start" validate:"required"`
	Finish Coord  `json:"finish" validate:"required"`
}

func (s *ShortestPathRequest) Bind(r *http.Request) error {
	if s.Region == "" {
		return errors.New("invalid request")
	}
	return nil
}

type TimeIndexResponse struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
}

type InstructionResponse struct {
	Turn        string `json:"turn"`
	Description string `json:"description"`
	Point       Coord  `json:"point"`
}

type ShortestPathResponse struct {
	Path         string                `json:"path"`
	Eta          float64               `json:"eta"`
	Dist         float64               `json:"dist"`
	Times        []TimeIndexResponse   `json:"times"`
	Instructions []InstructionResponse `json:"instructions"`
}

func RenderShortestPathResponse(route datastructure.Route) *ShortestPathResponse {
	times := make([]TimeIndexResponse, 0, len(route.Times))
	for _, t := range route.Times {
		times = append(times, TimeIndexResponse{Index: t.Index, Time: t.Time})
	}
	instructions := make([]InstructionResponse, 0, len(route.Instructions))
	for _, ins := range route.Instructions {
		instructions = append(instructions, InstructionResponse{
			Turn:        ins.Turn.String(),
			Description: ins.Description,
			Point:       Coord{Lat: ins.Point.Lat, Lon: ins.Point.Lon},
		})
	}
	return &ShortestPathResponse{
		Path:         datastructure.EncodePolyline(route.Polyline),
		Eta:          route.Eta,
		Dist:         route.Dist,
		Times:        times,
		Instructions: instructions,
	}
}

func (h *NavigationHandler) ShortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	route, code := h.svc.ShortestPath(r.Context(), data.Region,
		datastructure.NewCoordinate(data.Start.Lat, data.Start.Lon),
		datastructure.NewCoordinate(data.Finish.Lat, data.Finish.Lon))
	if h.m != nil {
		h.m.routeQueryCount.WithLabelValues(code.String()).Inc()
	}
	if code != router.NoError {
		render.Render(w, r, ErrRouteCode(code))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderShortestPathResponse(route))
}

type RoadSnappingRequest struct {
	Lat float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lon float64 `json:"lon" validate:"required,lt=180,gt=-180"`
}

func (s *RoadSnappingRequest) Bind(r *http.Request) error {
	if s.Lat == 0 && s.Lon == 0 {
		return errors.New("invalid request")
	}
	return nil
}

type SnappedEdgeResponse struct {
	Region     string  `json:"region"`
	FeatureID  uint32  `json:"feature_id"`
	PointIndex uint32  `json:"point_index"`
	SegStart   Coord   `json:"segment_start"`
	SegEnd     Coord   `json:"segment_end"`
	Distance   float64 `json:"distance"`
}

type RoadSnappingResponse struct {
	Edges []SnappedEdgeResponse `json:"edges"`
}

func RenderRoadSnappingResponse(edges []datastructure.EdgeCandidate, dists []float64) *RoadSnappingResponse {
	edgesResp := make([]SnappedEdgeResponse, 0, len(edges))
	for i, e := range edges {
		edgesResp = append(edgesResp, SnappedEdgeResponse{
			Region:     e.Region,
			FeatureID:  e.Point.FeatureID,
			PointIndex: e.Point.PointIndex,
			SegStart:   Coord{Lat: e.SegStart.Lat, Lon: e.SegStart.Lon},
			SegEnd:     Coord{Lat: e.SegEnd.Lat, Lon: e.SegEnd.Lon},
			Distance:   dists[i],
		})
	}
	return &RoadSnappingResponse{Edges: edgesResp}
}

func (h *NavigationHandler) NearestRoadSegments(w http.ResponseWriter, r *http.Request) {
	data := &RoadSnappingRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	roadSegments, dists, err := h.svc.NearestRoadSegments(r.Context(), data.Lat, data.Lon)
	if err != nil {
		render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRoadSnappingResponse(roadSegments, dists))
}

type RegionListResponse struct {
	Regions []string `json:"regions"`
}

func (h *NavigationHandler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.svc.RegionList(r.Context())
	if err != nil {
		render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &RegionListResponse{Regions: regions})
}

// ErrRouteCode maps a routing result code to an http error response.
func ErrRouteCode(code router.Code) render.Renderer {
	status := http.StatusInternalServerError
	switch code {
	case router.NoPath, router.RouteFileNotExist:
		status = http.StatusNotFound
	case router.StartPointNotFound, router.EndPointNotFound:
		status = http.StatusBadRequest
	case router.Cancelled:
		status = http.StatusRequestTimeout
	}
	return &ErrResponse{
		Err:            errors.New(code.String()),
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status) + ".",
		ErrorText:      code.String(),
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}
