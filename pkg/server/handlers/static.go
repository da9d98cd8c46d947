package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/charlieegan3/exiflab/pkg/utils"
)

//go:embed static/*
var staticContent embed.FS

//go:embed templates/*
var Templates embed.FS

func bundle(dir string, files []string, mediaType string, minifier minify.MinifierFunc, devMode bool) ([]byte, error) {
	var bs []byte
	for _, f := range files {
		fileBytes, err := staticContent.ReadFile("static/" + dir + "/" + f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %s", f, err)
		}

		bs = append(bs, fileBytes...)
		bs = append(bs, []byte("\n")...)
	}

	if devMode {
		return bs, nil
	}

	m := minify.New()
	m.AddFunc(mediaType, minifier)

	out := bytes.NewBuffer([]byte{})
	if err := m.Minify(mediaType, out, bytes.NewReader(bs)); err != nil {
		return nil, fmt.Errorf("failed to minify %s: %s", dir, err)
	}

	return out.Bytes(), nil
}

func buildAssetHandler(opts *Options, content []byte, contentType string) (string, func(http.ResponseWriter, *http.Request)) {
	etag := utils.CRC32Hash(content)

	return etag, func(w http.ResponseWriter, r *http.Request) {
		if utils.NotModified(w, r, etag) {
			return
		}

		w.Header().Set("Content-Type", contentType)
		if !opts.DevMode {
			utils.SetCacheControl(w, "public, max-age=31622400")
		}

		_, err := w.Write(content)
		if err != nil && opts.LoggerError != nil {
			opts.LoggerError.Println(err)
		}
	}
}

func BuildCSSHandler(opts *Options) (string, func(http.ResponseWriter, *http.Request), error) {
	bs, err := bundle("css", []string{"styles.css"}, "text/css", css.Minify, opts.DevMode)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate css: %s", err)
	}

	etag, handler := buildAssetHandler(opts, bs, "text/css")

	return etag, handler, nil
}

func BuildJSHandler(opts *Options) (string, func(http.ResponseWriter, *http.Request), error) {
	bs, err := bundle("js", []string{"script.js"}, "application/javascript", js.Minify, opts.DevMode)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate js: %s", err)
	}

	etag, handler := buildAssetHandler(opts, bs, "application/javascript")

	return etag, handler, nil
}

func BuildIndexHandler(opts *Options) (func(http.ResponseWriter, *http.Request), error) {
	tmpl, err := template.ParseFS(
		Templates,
		"templates/index.html",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %s", err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer([]byte{})

		data := struct {
			Opts     *Options
			Profiles any
		}{
			Opts: opts,
		}
		if opts.Catalog != nil {
			data.Profiles = opts.Catalog.All()
		}

		err := tmpl.ExecuteTemplate(buf, "base", data)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, err = w.Write([]byte(err.Error()))
			if err != nil && opts.LoggerError != nil {
				opts.LoggerError.Println(err)
			}
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, err = io.Copy(w, buf)
		if err != nil && opts.LoggerError != nil {
			opts.LoggerError.Println(err)
		}
	}, nil
}
