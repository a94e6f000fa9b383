package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
	"github.com/NERVsystems/restaurantmcp/pkg/tools"
	"github.com/NERVsystems/restaurantmcp/pkg/version"
	"github.com/julienschmidt/httprouter"
)

const maxRequestBody = 1 << 20

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (api *API) listTools(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defs := api.dispatcher.Tools()
	list := make([]toolInfo, 0, len(defs))
	for _, def := range defs {
		list = append(list, toolInfo{Name: def.Name, Description: def.Tool.Description})
	}
	api.writeEnvelope(w, r, tools.Envelope{Status: tools.StatusSuccess, Data: list})
}

func (api *API) callTool(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req tools.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		api.badRequest(w, r, "malformed request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Tool) == "" {
		api.badRequest(w, r, `request body must name a "tool"`)
		return
	}

	api.writeEnvelope(w, r, api.dispatcher.Call(r.Context(), req))
}

func (api *API) geocode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	address := r.URL.Query().Get("address")
	resolved, err := api.geocoder.Geocode(r.Context(), address)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeEnvelope(w, r, tools.Envelope{Status: tools.StatusSuccess, Data: resolved})
}

func (api *API) versionInfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.writeEnvelope(w, r, tools.Envelope{Status: tools.StatusSuccess, Data: version.Info()})
}

func (api *API) notFound(w http.ResponseWriter, r *http.Request) {
	api.writeError(w, r, lookup.Errorf(lookup.KindNotFound, "http", "no route for %s", r.URL.Path))
}

func (api *API) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	msg := "method " + r.Method + " not allowed"
	api.writeJSON(w, r, http.StatusMethodNotAllowed, tools.Envelope{Status: tools.StatusError, Error: &msg, Kind: lookup.KindInvalidArgument})
}

func (api *API) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	api.writeError(w, r, lookup.Errorf(lookup.KindInvalidArgument, "http", "%s", msg))
}

func (api *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var lerr *lookup.Error
	msg := "internal error"
	if errors.As(err, &lerr) {
		msg = lerr.Message
	}
	api.writeEnvelope(w, r, tools.Envelope{Status: tools.StatusError, Error: &msg, Kind: lookup.KindOf(err)})
}

func (api *API) writeEnvelope(w http.ResponseWriter, r *http.Request, env tools.Envelope) {
	api.writeJSON(w, r, statusFor(env), env)
}

// writeJSON marshals data to an indented JSON response.
func (api *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		api.logger.Error("failed to encode response", "error", err, "request_id", requestIDFrom(r.Context()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		api.logger.Error("failed to write JSON response", "error", err, "request_id", requestIDFrom(r.Context()))
	}
}

// statusFor maps an envelope to its HTTP status code.
func statusFor(env tools.Envelope) int {
	if env.OK() {
		return http.StatusOK
	}
	switch env.Kind {
	case lookup.KindInvalidArgument, lookup.KindUnknownTool:
		return http.StatusBadRequest
	case lookup.KindNotFound:
		return http.StatusNotFound
	case lookup.KindUpstreamUnavailable, lookup.KindUpstreamDataError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
