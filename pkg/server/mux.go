package server

import (
	"fmt"
	"net/http"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/charlieegan3/exiflab/pkg/server/handlers"
	"github.com/charlieegan3/exiflab/pkg/server/handlers/browse"
	"github.com/charlieegan3/exiflab/pkg/server/middlewares"
)

func newRouter(opts *handlers.Options) (*mux.Router, error) {
	router := mux.NewRouter()

	stylesEtag, stylesHandler, err := handlers.BuildCSSHandler(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build styles handler: %s", err)
	}

	scriptETag, scriptHandler, err := handlers.BuildJSHandler(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build script handler: %s", err)
	}

	opts.EtagStyles = stylesEtag
	opts.EtagScript = scriptETag

	indexHandler, err := handlers.BuildIndexHandler(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build index handler: %s", err)
	}

	router.HandleFunc("/styles.css", stylesHandler).Methods(http.MethodGet)
	router.HandleFunc("/script.js", scriptHandler).Methods(http.MethodGet)
	router.HandleFunc("/profiles", handlers.BuildProfilesHandler(opts)).Methods(http.MethodGet)

	router.HandleFunc("/upload", handlers.BuildUploadHandler(opts)).Methods(http.MethodPost)

	sessionRouter := router.PathPrefix("/session").Subrouter()
	sessionRouter.HandleFunc("", handlers.BuildGetSessionHandler(opts)).Methods(http.MethodGet)
	sessionRouter.HandleFunc("", handlers.BuildDeleteSessionHandler(opts)).Methods(http.MethodDelete)
	sessionRouter.HandleFunc("/fields", handlers.BuildFieldsHandler(opts)).Methods(http.MethodPost)
	sessionRouter.HandleFunc("/device", handlers.BuildDeviceHandler(opts)).Methods(http.MethodPost)
	sessionRouter.HandleFunc("/actions/{action}", handlers.BuildActionHandler(opts)).Methods(http.MethodPost)
	sessionRouter.HandleFunc("/reload", handlers.BuildReloadHandler(opts)).Methods(http.MethodPost)
	sessionRouter.HandleFunc("/apply", handlers.BuildApplyHandler(opts)).Methods(http.MethodPost)
	sessionRouter.HandleFunc("/discard", handlers.BuildDiscardHandler(opts)).Methods(http.MethodPost)
	sessionRouter.HandleFunc("/download", handlers.BuildDownloadHandler(opts)).Methods(http.MethodGet)
	sessionRouter.HandleFunc("/files", browse.BuildHandler(opts)).Methods(http.MethodGet)
	sessionRouter.HandleFunc(
		"/meta/{name:[a-z]+}{ext:\\.json|\\.jpg}",
		handlers.BuildMetadataHandler(opts),
	).Methods(http.MethodGet)

	router.HandleFunc("/", indexHandler).Methods(http.MethodGet)

	router.Use(middlewares.BuildAuth(opts))
	router.Use(middlewares.BuildSessionMiddleware())
	router.Use(gorillaHandlers.CompressHandler)

	return router, nil
}
